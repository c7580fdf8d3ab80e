package utcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Manual is the root of a UTCP manual document.
type Manual struct {
	ManualVersion string            `json:"manual_version"`
	UTCPVersion   string            `json:"utcp_version"`
	Info          ManualInfo        `json:"info"`
	Variables     map[string]string `json:"variables,omitempty"`
	Tools         []Tool            `json:"tools"`
}

// ManualInfo describes the manual itself.
type ManualInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Tool is one tool entry of a manual.
type Tool struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Inputs       json.RawMessage `json:"inputs"`
	Outputs      json.RawMessage `json:"outputs"`
	Tags         []string        `json:"tags,omitempty"`
	CallTemplate CallTemplate    `json:"tool_call_template"`
}

// Call template types.
const (
	TemplateTypeHTTP = "http"
	TemplateTypeCLI  = "cli"
)

// CallTemplate describes how a tool executes. Type selects between the HTTP
// fields and the CLI fields; the unused group stays zero.
type CallTemplate struct {
	Type string `json:"call_template_type"`

	URL        string            `json:"url,omitempty"`
	HTTPMethod string            `json:"http_method,omitempty"`
	Auth       *Auth             `json:"auth,omitempty"`
	BodyField  string            `json:"body_field,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`

	Commands            []string `json:"commands,omitempty"`
	AppendToFinalOutput bool     `json:"append_to_final_output,omitempty"`
}

// Auth types.
const (
	AuthTypeAPIKey = "api_key"
	AuthTypeBearer = "bearer"
	AuthTypeBasic  = "basic"
)

// Auth describes request authentication for HTTP templates. Type selects
// which fields apply. Values may contain ${NAME} placeholders.
type Auth struct {
	Type string `json:"auth_type"`

	APIKey         string `json:"api_key,omitempty"`
	HeaderName     string `json:"header_name,omitempty"`
	QueryParamName string `json:"query_param_name,omitempty"`

	Token string `json:"token,omitempty"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// httpMethods are the methods an HTTP template may declare.
var httpMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}

// LoadManual reads and validates the manual at path. YAML manuals are
// selected by extension; everything else goes through the JSONC path.
func LoadManual(path string) (*Manual, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manual: %w", err)
	}
	manual, err := ParseManual(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("manual %s: %w", path, err)
	}
	return manual, nil
}

// ParseManual decodes and validates manual bytes. ext selects the decoder;
// ".yaml" and ".yml" are normalized through JSON so both forms share one
// validation path.
func ParseManual(data []byte, ext string) (*Manual, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		normalized, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("normalizing YAML: %w", err)
		}
		data = normalized
	default:
		data = jsonc.ToJSON(data)
	}

	// Required keys must be present, not merely zero after decoding.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing manual: %w", err)
	}
	for _, field := range []string{"manual_version", "utcp_version", "info", "tools"} {
		if _, ok := probe[field]; !ok {
			return nil, fmt.Errorf("missing required field %q", field)
		}
	}

	var manual Manual
	if err := json.Unmarshal(data, &manual); err != nil {
		return nil, fmt.Errorf("parsing manual: %w", err)
	}
	if err := manual.validate(); err != nil {
		return nil, err
	}
	return &manual, nil
}

func (m *Manual) validate() error {
	if m.Info.Title == "" {
		return fmt.Errorf("missing required field %q", "info.title")
	}
	if m.Info.Version == "" {
		return fmt.Errorf("missing required field %q", "info.version")
	}
	for i := range m.Tools {
		tool := &m.Tools[i]
		if tool.Name == "" {
			return fmt.Errorf("tool at index %d: missing required field %q", i, "name")
		}
		if err := tool.validate(); err != nil {
			return fmt.Errorf("tool %q: %w", tool.Name, err)
		}
	}
	return nil
}

func (t *Tool) validate() error {
	if t.Inputs == nil {
		return fmt.Errorf("missing required field %q", "inputs")
	}
	if t.Outputs == nil {
		return fmt.Errorf("missing required field %q", "outputs")
	}
	return t.CallTemplate.validate()
}

func (t *CallTemplate) validate() error {
	switch t.Type {
	case TemplateTypeHTTP:
		if t.URL == "" {
			return fmt.Errorf("http template: missing required field %q", "url")
		}
		if t.HTTPMethod == "" {
			return fmt.Errorf("http template: missing required field %q", "http_method")
		}
		if !httpMethods[t.HTTPMethod] {
			return fmt.Errorf("http template: unknown http_method %q", t.HTTPMethod)
		}
		if t.Auth != nil {
			return t.Auth.validate()
		}
		return nil
	case TemplateTypeCLI:
		if t.Commands == nil {
			return fmt.Errorf("cli template: missing required field %q", "commands")
		}
		return nil
	case "":
		return fmt.Errorf("missing required field %q", "call_template_type")
	default:
		return fmt.Errorf("unknown call_template_type %q", t.Type)
	}
}

func (a *Auth) validate() error {
	switch a.Type {
	case AuthTypeAPIKey:
		if a.APIKey == "" {
			return fmt.Errorf("api_key auth: missing required field %q", "api_key")
		}
	case AuthTypeBearer:
		if a.Token == "" {
			return fmt.Errorf("bearer auth: missing required field %q", "token")
		}
	case AuthTypeBasic:
		if a.Username == "" {
			return fmt.Errorf("basic auth: missing required field %q", "username")
		}
		if a.Password == "" {
			return fmt.Errorf("basic auth: missing required field %q", "password")
		}
	case "":
		return fmt.Errorf("auth: missing required field %q", "auth_type")
	default:
		return fmt.Errorf("unknown auth_type %q", a.Type)
	}
	return nil
}
