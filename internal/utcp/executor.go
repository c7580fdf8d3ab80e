package utcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/toolscope-io/toolscope/internal/logging"
	"github.com/toolscope-io/toolscope/internal/protocol"
)

// httpTimeout bounds declarative HTTP tool calls.
const httpTimeout = 30 * time.Second

// executor runs tool call templates.
type executor struct {
	engine *templateEngine
	client *http.Client
}

func newExecutor(engine *templateEngine) *executor {
	return &executor{
		engine: engine,
		client: &http.Client{Timeout: httpTimeout},
	}
}

// execute runs a tool's call template with the given arguments.
func (e *executor) execute(ctx context.Context, tool *Tool, args map[string]any) (*protocol.ToolCallResult, error) {
	switch tool.CallTemplate.Type {
	case TemplateTypeHTTP:
		return e.executeHTTP(ctx, &tool.CallTemplate, args)
	case TemplateTypeCLI:
		return e.executeCLI(ctx, &tool.CallTemplate, args)
	default:
		return nil, fmt.Errorf("unknown call_template_type %q", tool.CallTemplate.Type)
	}
}

// executeHTTP builds and sends the templated request. A non-2xx status marks
// the result as a tool error; the raw body is the content either way.
func (e *executor) executeHTTP(ctx context.Context, tmpl *CallTemplate, args map[string]any) (*protocol.ToolCallResult, error) {
	url, err := e.engine.substitute(tmpl.URL)
	if err != nil {
		return nil, err
	}
	url = substituteArgs(url, args)

	var body io.Reader
	hasBody := false
	if tmpl.BodyField != "" {
		if value, ok := args[tmpl.BodyField]; ok {
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("encoding body field %q: %w", tmpl.BodyField, err)
			}
			body = bytes.NewReader(encoded)
			hasBody = true
		}
	}

	req, err := http.NewRequestWithContext(ctx, tmpl.HTTPMethod, url, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", tmpl.HTTPMethod, err)
	}

	if tmpl.Auth != nil {
		if err := e.applyAuth(req, tmpl.Auth); err != nil {
			return nil, err
		}
	}

	headers, err := e.engine.substituteMap(tmpl.Headers)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// The JSON body wins over any manually declared content type.
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug().Str("method", tmpl.HTTPMethod).Str("url", url).Msg("executing HTTP tool call")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", tmpl.HTTPMethod, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	return &protocol.ToolCallResult{
		Content: []protocol.ContentItem{protocol.TextContent(string(respBody))},
		IsError: !success,
	}, nil
}

// applyAuth sets request authentication. Auth values go through variable
// substitution, so manuals can keep secrets in the environment.
func (e *executor) applyAuth(req *http.Request, auth *Auth) error {
	switch auth.Type {
	case AuthTypeAPIKey:
		key, err := e.engine.substitute(auth.APIKey)
		if err != nil {
			return err
		}
		if auth.QueryParamName != "" {
			q := req.URL.Query()
			q.Set(auth.QueryParamName, key)
			req.URL.RawQuery = q.Encode()
			return nil
		}
		if auth.HeaderName != "" {
			req.Header.Set(auth.HeaderName, key)
			return nil
		}
		req.Header.Set("Authorization", "ApiKey "+key)
		return nil
	case AuthTypeBearer:
		token, err := e.engine.substitute(auth.Token)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	case AuthTypeBasic:
		username, err := e.engine.substitute(auth.Username)
		if err != nil {
			return err
		}
		password, err := e.engine.substitute(auth.Password)
		if err != nil {
			return err
		}
		req.SetBasicAuth(username, password)
		return nil
	default:
		return fmt.Errorf("unknown auth_type %q", auth.Type)
	}
}

// executeCLI runs the template's commands. Without append_to_final_output
// only the first non-empty command runs and its exit status decides the
// error flag; with it, every command runs, stdouts are joined, and the
// result is always reported as success.
func (e *executor) executeCLI(ctx context.Context, tmpl *CallTemplate, args map[string]any) (*protocol.ToolCallResult, error) {
	var outputs []string

	for _, command := range tmpl.Commands {
		line, err := e.engine.substitute(command)
		if err != nil {
			return nil, err
		}
		line = substituteArgs(line, args)

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		logging.Debug().Str("command", line).Msg("executing CLI tool call")

		cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr := cmd.Run()
		var exitErr *exec.ExitError
		if runErr != nil && !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("executing command %q: %w", line, runErr)
		}

		if !tmpl.AppendToFinalOutput {
			content := stdout.String()
			if stderr.Len() > 0 {
				content = content + "\nSTDERR:\n" + stderr.String()
			}
			return &protocol.ToolCallResult{
				Content: []protocol.ContentItem{protocol.TextContent(content)},
				IsError: runErr != nil,
			}, nil
		}

		outputs = append(outputs, stdout.String())
	}

	return &protocol.ToolCallResult{
		Content: []protocol.ContentItem{protocol.TextContent(strings.Join(outputs, "\n"))},
	}, nil
}

// substituteArgs replaces {name} placeholders with argument values. String
// arguments are used verbatim, everything else is JSON-encoded.
func substituteArgs(s string, args map[string]any) string {
	for name, value := range args {
		s = strings.ReplaceAll(s, "{"+name+"}", stringifyArg(value))
	}
	return s
}

func stringifyArg(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
