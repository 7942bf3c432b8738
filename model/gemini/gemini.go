//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini provides a Gemini model implementation backed by the
// Google Gen AI SDK. Several API keys may be configured; when the active key
// runs out of quota the model moves on to the next one.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/tool"
)

const (
	// DefaultModel is the default Gemini model.
	DefaultModel = "gemini-1.5-flash"
	// GoogleAPIKeyEnv is the environment variable name for the Google API key.
	GoogleAPIKeyEnv = "GOOGLE_API_KEY"

	defaultChannelBufferSize = 1
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("gemini: no API key provided")

type generateFunc func(
	ctx context.Context,
	apiKey string,
	modelName string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error)

// Model implements the model.Model interface for Gemini.
type Model struct {
	name              string
	channelBufferSize int
	baseURL           string
	httpClient        *http.Client
	generate          generateFunc

	mu      sync.Mutex
	keys    []string
	current int
	clients map[string]*genai.Client
}

// Option configures a Gemini model.
type Option func(*Model)

// WithAPIKeys sets the API keys in rotation order. Empty keys are ignored.
func WithAPIKeys(keys ...string) Option {
	return func(m *Model) {
		for _, k := range keys {
			if k = strings.TrimSpace(k); k != "" {
				m.keys = append(m.keys, k)
			}
		}
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(url string) Option {
	return func(m *Model) {
		m.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Model) {
		m.httpClient = client
	}
}

// WithChannelBufferSize sets the response channel buffer size.
func WithChannelBufferSize(size int) Option {
	return func(m *Model) {
		if size <= 0 {
			size = defaultChannelBufferSize
		}
		m.channelBufferSize = size
	}
}

// New creates a Gemini model. Without WithAPIKeys the key is read from
// GOOGLE_API_KEY.
func New(name string, opts ...Option) (*Model, error) {
	if name == "" {
		name = DefaultModel
	}
	m := &Model{
		name:              name,
		channelBufferSize: defaultChannelBufferSize,
		clients:           make(map[string]*genai.Client),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.keys) == 0 {
		WithAPIKeys(os.Getenv(GoogleAPIKeyEnv))(m)
	}
	if len(m.keys) == 0 {
		return nil, ErrNoAPIKey
	}
	if m.generate == nil {
		m.generate = m.generateWithSDK
	}
	return m, nil
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface.
func (m *Model) GenerateContent(ctx context.Context, request *model.Request) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	contents, config, err := buildRequest(request)
	if err != nil {
		return nil, err
	}

	responseChan := make(chan *model.Response, m.channelBufferSize)
	go func() {
		defer close(responseChan)
		rsp := m.generateWithRotation(ctx, contents, config)
		select {
		case responseChan <- rsp:
		case <-ctx.Done():
		}
	}()
	return responseChan, nil
}

// generateWithRotation tries each key at most once, starting from the
// active one.
func (m *Model) generateWithRotation(
	ctx context.Context,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) *model.Response {
	m.mu.Lock()
	start := m.current
	total := len(m.keys)
	m.mu.Unlock()

	var lastErr error
	for i := 0; i < total; i++ {
		idx := (start + i) % total
		result, err := m.generate(ctx, m.keys[idx], m.name, contents, config)
		if err == nil {
			return convertResponse(result)
		}
		lastErr = err
		if !isQuotaError(err) || ctx.Err() != nil {
			return errorResponse(model.ErrorTypeAPIError, err)
		}
		next := (idx + 1) % total
		m.mu.Lock()
		if m.current == idx {
			m.current = next
		}
		m.mu.Unlock()
		if i+1 < total {
			log.Warnf("gemini API key %d of %d exhausted, rotating", idx+1, total)
		}
	}
	return errorResponse(model.ErrorTypeQuotaError, fmt.Errorf("all %d API keys exhausted: %w", total, lastErr))
}

func (m *Model) generateWithSDK(
	ctx context.Context,
	apiKey string,
	modelName string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	client, err := m.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return client.Models.GenerateContent(ctx, modelName, contents, config)
}

func (m *Model) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[apiKey]; ok {
		return c, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: m.httpClient,
	}
	if m.baseURL != "" {
		cfg.HTTPOptions.BaseURL = m.baseURL
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m.clients[apiKey] = c
	return c, nil
}

// isQuotaError matches the SDK error text, which carries the HTTP code and
// the RESOURCE_EXHAUSTED status.
func isQuotaError(err error) bool {
	return model.IsQuotaExhausted(err)
}

func errorResponse(errType string, err error) *model.Response {
	return &model.Response{
		Error: &model.ResponseError{
			Message: err.Error(),
			Type:    errType,
		},
		Timestamp: time.Now(),
		Done:      true,
	}
}

// buildRequest splits system messages into the system instruction and maps
// the rest of the conversation to genai contents.
func buildRequest(request *model.Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}
	var system []string
	var contents []*genai.Content
	for _, msg := range request.Messages {
		var (
			role string
			part *genai.Part
		)
		switch msg.Role {
		case model.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		case model.RoleAssistant:
			role = genai.RoleModel
			if msg.Content != "" {
				contents = appendPart(contents, role, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				if len(tc.Function.Arguments) > 0 {
					if err := json.Unmarshal(tc.Function.Arguments, &args); err != nil {
						return nil, nil, fmt.Errorf("decode arguments of tool call %s: %w", tc.ID, err)
					}
				}
				contents = appendPart(contents, role, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				}})
			}
			continue
		case model.RoleTool:
			role = genai.RoleUser
			part = &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolID,
				Name:     msg.ToolName,
				Response: toolResponse(msg.Content),
			}}
		default:
			role = genai.RoleUser
			part = &genai.Part{Text: msg.Content}
		}
		contents = appendPart(contents, role, part)
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	if decls := convertTools(request.Tools); len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if request.MaxTokens != nil {
		config.MaxOutputTokens = int32(*request.MaxTokens)
	}
	if request.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*request.Temperature))
	}
	if request.TopP != nil {
		config.TopP = genai.Ptr(float32(*request.TopP))
	}
	if len(request.Stop) > 0 {
		config.StopSequences = request.Stop
	}
	return contents, config, nil
}

// appendPart merges consecutive parts of the same role into one content.
func appendPart(contents []*genai.Content, role string, part *genai.Part) []*genai.Content {
	if n := len(contents); n > 0 && contents[n-1].Role == role {
		contents[n-1].Parts = append(contents[n-1].Parts, part)
		return contents
	}
	return append(contents, &genai.Content{Role: role, Parts: []*genai.Part{part}})
}

func toolResponse(content string) map[string]any {
	out := map[string]any{}
	if err := json.Unmarshal([]byte(content), &out); err != nil || len(out) == 0 {
		return map[string]any{"output": content}
	}
	return out
}

func convertTools(tools map[string]tool.Tool) []*genai.FunctionDeclaration {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var decls []*genai.FunctionDeclaration
	for _, name := range names {
		d := tools[name].Declaration()
		if d == nil {
			continue
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  convertSchema(d.InputSchema),
		})
	}
	return decls
}

func convertSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Minimum:     s.Minimum,
		Default:     s.Default,
		Items:       convertSchema(s.Items),
	}
	if s.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*s.MinItems))
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func convertResponse(result *genai.GenerateContentResponse) *model.Response {
	rsp := &model.Response{
		Object:    model.ObjectTypeChatCompletion,
		Timestamp: time.Now(),
		Done:      true,
	}
	if result == nil {
		return rsp
	}
	rsp.ID = result.ResponseID
	rsp.Model = result.ModelVersion
	rsp.Created = rsp.Timestamp.Unix()
	for i, cand := range result.Candidates {
		choice := model.Choice{
			Index:   i,
			Message: model.Message{Role: model.RoleAssistant},
		}
		if cand.Content != nil {
			var text strings.Builder
			for _, part := range cand.Content.Parts {
				switch {
				case part.FunctionCall != nil:
					args, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						args = []byte("{}")
					}
					id := part.FunctionCall.ID
					if id == "" {
						id = fmt.Sprintf("auto_call_%d", len(choice.Message.ToolCalls))
					}
					choice.Message.ToolCalls = append(choice.Message.ToolCalls, model.ToolCall{
						ID:   id,
						Type: "function",
						Function: model.FunctionDefinitionParam{
							Name:      part.FunctionCall.Name,
							Arguments: args,
						},
					})
				case part.Text != "" && !part.Thought:
					text.WriteString(part.Text)
				}
			}
			choice.Message.Content = text.String()
		}
		if cand.FinishReason != "" {
			reason := strings.ToLower(string(cand.FinishReason))
			choice.FinishReason = &reason
		}
		rsp.Choices = append(rsp.Choices, choice)
	}
	if u := result.UsageMetadata; u != nil {
		rsp.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return rsp
}
