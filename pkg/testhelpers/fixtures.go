package testhelpers

import (
	"embed"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

//go:embed fixtures/*.yaml
var fixtureFiles embed.FS

// fixtureNamespace derives stable ids from fixture keys.
var fixtureNamespace = uuid.MustParse("6f1c8f53-3a49-4f55-9d0e-5b8d2b7f2c11")

type fixtureFile struct {
	ObjectTypes []string                     `yaml:"object_types"`
	FactTypes   []string                     `yaml:"fact_types"`
	Objects     map[string]fixtureObjectSpec `yaml:"objects"`
	Facts       map[string]fixtureFactSpec   `yaml:"facts"`
}

type fixtureObjectSpec struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

type fixtureFactSpec struct {
	Type          string    `yaml:"type"`
	Value         *string   `yaml:"value"`
	Source        string    `yaml:"source"`
	Destination   string    `yaml:"destination"`
	InReferenceTo string    `yaml:"in_reference_to"`
	Bidirectional bool      `yaml:"bidirectional"`
	AccessMode    string    `yaml:"access_mode"`
	Organization  string    `yaml:"organization"`
	Origin        string    `yaml:"origin"`
	ACL           []string  `yaml:"acl"`
	Trust         float64   `yaml:"trust"`
	Confidence    float64   `yaml:"confidence"`
	Retracted     bool      `yaml:"retracted"`
	Timestamp     time.Time `yaml:"timestamp"`
	LastSeen      time.Time `yaml:"last_seen"`
}

// Fixture is a graph loaded from YAML into an in-memory store.
// Every key in the file maps to a stable id, see ObjectID, FactID, OrganizationID and SubjectID.
type Fixture struct {
	Dao   *MemoryObjectFactDao
	Types *FixedTypeResolver

	objects map[string]*models.ObjectRecord
	facts   map[string]*models.FactRecord
}

// LoadFixture loads an embedded fixture by name (without extension) and fails the test on error.
func LoadFixture(t *testing.T, name string) *Fixture {
	t.Helper()

	data, err := fixtureFiles.ReadFile("fixtures/" + name + ".yaml")
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}

	fx, err := ParseFixture(data)
	if err != nil {
		t.Fatalf("failed to parse fixture %s: %v", name, err)
	}
	return fx
}

// ParseFixture builds a Fixture from YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture: %w", err)
	}

	objectTypes := make(map[string]*models.ObjectTypeStruct, len(file.ObjectTypes))
	for _, name := range file.ObjectTypes {
		objectTypes[name] = &models.ObjectTypeStruct{ID: fixtureID("objectType", name), Name: name}
	}
	factTypes := make(map[string]*models.FactTypeStruct, len(file.FactTypes))
	for _, name := range file.FactTypes {
		factTypes[name] = &models.FactTypeStruct{ID: fixtureID("factType", name), Name: name}
	}

	fx := &Fixture{
		Dao:     NewMemoryObjectFactDao(),
		Types:   NewFixedTypeResolver(mapValues(objectTypes), mapValues(factTypes)),
		objects: make(map[string]*models.ObjectRecord, len(file.Objects)),
		facts:   make(map[string]*models.FactRecord, len(file.Facts)),
	}

	for key, spec := range file.Objects {
		ot, ok := objectTypes[spec.Type]
		if !ok {
			return nil, fmt.Errorf("object %s: unknown object type %q", key, spec.Type)
		}
		o := &models.ObjectRecord{ID: ObjectID(key), TypeID: ot.ID, Value: spec.Value}
		fx.objects[key] = o
		fx.Dao.AddObject(o)
	}

	for key, spec := range file.Facts {
		f, err := fx.buildFact(key, spec, factTypes)
		if err != nil {
			return nil, err
		}
		fx.facts[key] = f
		fx.Dao.AddFact(f)
	}

	return fx, nil
}

func (fx *Fixture) buildFact(key string, spec fixtureFactSpec, factTypes map[string]*models.FactTypeStruct) (*models.FactRecord, error) {
	ft, ok := factTypes[spec.Type]
	if !ok {
		return nil, fmt.Errorf("fact %s: unknown fact type %q", key, spec.Type)
	}

	accessMode := models.AccessModePublic
	if spec.AccessMode != "" {
		mode, err := models.ParseAccessMode(spec.AccessMode)
		if err != nil {
			return nil, fmt.Errorf("fact %s: %w", key, err)
		}
		accessMode = mode
	}

	f := &models.FactRecord{
		ID:                   FactID(key),
		TypeID:               ft.ID,
		Value:                spec.Value,
		Trust:                spec.Trust,
		Confidence:           spec.Confidence,
		AccessMode:           accessMode,
		Timestamp:            spec.Timestamp,
		LastSeenTimestamp:    spec.LastSeen,
		BidirectionalBinding: spec.Bidirectional,
		Retracted:            spec.Retracted,
	}
	if f.LastSeenTimestamp.IsZero() {
		f.LastSeenTimestamp = f.Timestamp
	}

	var err error
	if f.SourceObject, err = fx.objectRef(key, spec.Source); err != nil {
		return nil, err
	}
	if f.DestinationObject, err = fx.objectRef(key, spec.Destination); err != nil {
		return nil, err
	}

	if spec.InReferenceTo != "" {
		id := FactID(spec.InReferenceTo)
		f.InReferenceToID = &id
	}
	if spec.Organization != "" {
		id := OrganizationID(spec.Organization)
		f.OrganizationID = &id
	}
	if spec.Origin != "" {
		id := fixtureID("origin", spec.Origin)
		f.OriginID = &id
	}
	for _, subject := range spec.ACL {
		f.ACL = append(f.ACL, SubjectID(subject))
	}

	return f, nil
}

func (fx *Fixture) objectRef(factKey, objectKey string) (*models.ObjectRecord, error) {
	if objectKey == "" {
		return nil, nil
	}
	o, ok := fx.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("fact %s: unknown object %q", factKey, objectKey)
	}
	return o, nil
}

// Object returns the Object stored under key, or nil.
func (fx *Fixture) Object(key string) *models.ObjectRecord {
	return fx.objects[key]
}

// Fact returns the Fact stored under key, or nil.
func (fx *Fixture) Fact(key string) *models.FactRecord {
	return fx.facts[key]
}

// ObjectID returns the id a fixture assigns to the Object key.
func ObjectID(key string) uuid.UUID { return fixtureID("object", key) }

// FactID returns the id a fixture assigns to the Fact key.
func FactID(key string) uuid.UUID { return fixtureID("fact", key) }

// OrganizationID returns the id a fixture assigns to the organization key.
func OrganizationID(key string) uuid.UUID { return fixtureID("organization", key) }

// SubjectID returns the id a fixture assigns to the subject key.
func SubjectID(key string) uuid.UUID { return fixtureID("subject", key) }

func fixtureID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(fixtureNamespace, []byte(kind+"/"+key))
}

func mapValues[K comparable, V any](m map[K]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
