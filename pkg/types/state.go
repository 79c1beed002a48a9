package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Recognized state document keys. Anything else is carried verbatim in
// the Extra bag so collaborating extensions can piggyback on the session.
const (
	KeyDatabase               = "database"
	KeyCreateDatabase         = "createDatabase"
	KeyCreateDatabaseTemplate = "createDatabaseTemplate"
	KeyFixture                = "fixture"
	KeyFixtures               = "fixtures"
	KeyDatetime               = "datetime"
	KeyMailer                 = "mailer"
	KeySessionID              = "sessionId"
)

// DatetimeLayout is the wall-clock format accepted in the datetime field.
const DatetimeLayout = "2006-01-02 15:04:05"

// StateDocument is the persisted record of the current test-session
// overrides. A document is a valid active session iff Database is
// non-empty and the state file exists on disk.
type StateDocument struct {
	Database               string         // Name of the scratch database currently bound.
	CreateDatabase         bool           // One-shot: provision a new scratch database.
	CreateDatabaseTemplate string         // One-shot: SQL dump imported at creation time.
	Fixture                string         // One-shot: fixture file to load.
	Fixtures               []string       // Append-only audit list of loaded fixture paths.
	Datetime               string         // Mocked wall clock, DatetimeLayout format.
	Mailer                 string         // Mock mail-sender type identifier.
	SessionID              string         // UUID stamped when the session starts.
	Extra                  map[string]any // Unrecognized keys, preserved verbatim.
}

// Delta is the typed form of one control request (start/update). It
// carries the same keys a client may set; Fixtures and SessionID are
// owned by the lifecycle manager and cannot arrive in a delta.
type Delta struct {
	Database               string
	CreateDatabase         bool
	CreateDatabaseTemplate string
	Fixture                string
	Datetime               string
	Mailer                 string
	Extra                  map[string]any
}

// ParseDelta builds a Delta from flat form-style key/value input, as it
// arrives from the control plane. Boolean fields accept the usual form
// spellings ("1", "true", "on"). Unknown keys land in Extra.
func ParseDelta(values map[string]string) Delta {
	var d Delta
	for k, v := range values {
		switch k {
		case KeyDatabase:
			d.Database = v
		case KeyCreateDatabase:
			d.CreateDatabase = parseFormBool(v)
		case KeyCreateDatabaseTemplate:
			d.CreateDatabaseTemplate = v
		case KeyFixture:
			d.Fixture = v
		case KeyDatetime:
			d.Datetime = v
		case KeyMailer:
			d.Mailer = v
		case KeyFixtures, KeySessionID:
			// Manager-owned keys; ignore if a client sends them.
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]any)
			}
			d.Extra[k] = v
		}
	}
	return d
}

// parseFormBool interprets form-encoded boolean spellings.
func parseFormBool(v string) bool {
	switch strings.ToLower(v) {
	case "on", "yes":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Merge overlays a delta onto the document. Keys present in the delta
// replace the old value wholesale; keys absent from the delta survive
// untouched. The Fixtures audit list is never written by Merge.
func (s *StateDocument) Merge(d Delta) {
	if d.Database != "" {
		s.Database = d.Database
	}
	if d.CreateDatabase {
		s.CreateDatabase = true
	}
	if d.CreateDatabaseTemplate != "" {
		s.CreateDatabaseTemplate = d.CreateDatabaseTemplate
	}
	if d.Fixture != "" {
		s.Fixture = d.Fixture
	}
	if d.Datetime != "" {
		s.Datetime = d.Datetime
	}
	if d.Mailer != "" {
		s.Mailer = d.Mailer
	}
	for k, v := range d.Extra {
		if s.Extra == nil {
			s.Extra = make(map[string]any)
		}
		s.Extra[k] = v
	}
}

// AsDelta converts a persisted document back into a delta, so a request
// loading state from disk runs through the same apply path as a control
// request. One-shot keys have already been consumed before persisting,
// so they are never re-triggered here.
func (s *StateDocument) AsDelta() Delta {
	d := Delta{
		Database:               s.Database,
		CreateDatabase:         s.CreateDatabase,
		CreateDatabaseTemplate: s.CreateDatabaseTemplate,
		Fixture:                s.Fixture,
		Datetime:               s.Datetime,
		Mailer:                 s.Mailer,
	}
	if len(s.Extra) > 0 {
		d.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			d.Extra[k] = v
		}
	}
	return d
}

// Clone returns a deep-enough copy for read-only callers. The Extra bag
// is copied one level deep; nested values are shared.
func (s *StateDocument) Clone() StateDocument {
	out := *s
	out.Fixtures = append([]string(nil), s.Fixtures...)
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON flattens the Extra bag into the top-level object so
// unknown keys round-trip through the state file unchanged.
func (s StateDocument) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(s.Extra)+8)
	for k, v := range s.Extra {
		obj[k] = v
	}
	if s.Database != "" {
		obj[KeyDatabase] = s.Database
	}
	if s.CreateDatabase {
		obj[KeyCreateDatabase] = true
	}
	if s.CreateDatabaseTemplate != "" {
		obj[KeyCreateDatabaseTemplate] = s.CreateDatabaseTemplate
	}
	if s.Fixture != "" {
		obj[KeyFixture] = s.Fixture
	}
	if len(s.Fixtures) > 0 {
		obj[KeyFixtures] = s.Fixtures
	}
	if s.Datetime != "" {
		obj[KeyDatetime] = s.Datetime
	}
	if s.Mailer != "" {
		obj[KeyMailer] = s.Mailer
	}
	if s.SessionID != "" {
		obj[KeySessionID] = s.SessionID
	}
	return json.Marshal(obj)
}

// UnmarshalJSON pulls the recognized keys into typed fields and leaves
// everything else in Extra.
func (s *StateDocument) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = StateDocument{}
	for k, v := range obj {
		switch k {
		case KeyDatabase:
			s.Database = asString(v)
		case KeyCreateDatabase:
			b, _ := v.(bool)
			s.CreateDatabase = b
		case KeyCreateDatabaseTemplate:
			s.CreateDatabaseTemplate = asString(v)
		case KeyFixture:
			s.Fixture = asString(v)
		case KeyFixtures:
			if list, ok := v.([]any); ok {
				for _, item := range list {
					s.Fixtures = append(s.Fixtures, asString(item))
				}
			}
		case KeyDatetime:
			s.Datetime = asString(v)
		case KeyMailer:
			s.Mailer = asString(v)
		case KeySessionID:
			s.SessionID = asString(v)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			s.Extra[k] = v
		}
	}
	return nil
}

// asString converts a decoded JSON value to its string form, tolerating
// non-string scalars that loosely-typed clients may send.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
