package rpcserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// JSON-RPC 2.0 standard error codes, plus parsekit's own server-defined
// range (-32000..-32099).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
	CodeFatal          = -32001
	CodeUnauthorized   = -32002
)

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Request is a JSON-RPC 2.0 request object. ID is left as raw JSON so a
// numeric, string, or null ID round-trips without a caller committing to
// one Go type.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response object.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: "2.0", Error: &RPCError{Code: code, Message: message}, ID: id}
}

func okResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", Result: result, ID: id}
}

// compileParams is the shape of the compile method's params object.
type compileParams struct {
	Grammar string `json:"grammar"`
	Text    string `json:"text"`
}

// stopParams is the shape of the stop method's params object, for
// transports (the plain TCP line protocol, in particular) that have no
// notion of an HTTP Authorization header to carry the bearer token in.
type stopParams struct {
	Token string `json:"token"`
}

// identifyResult is the identify method's result object.
type identifyResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// dispatch runs method against e and returns either a JSON-marshalable
// result or an RPCError, regardless of which transport (TCP line, HTTP
// request) the call arrived over. token is the bearer token to check
// against secret for the stop method; other methods ignore it.
func dispatch(e *Engine, secret []byte, method string, params json.RawMessage, token string, onStop func()) (any, *RPCError) {
	switch method {
	case "identify":
		name, version := e.Identify()
		return identifyResult{Name: name, Version: version}, nil

	case "stop":
		if err := verifyStopToken(token, secret); err != nil {
			return nil, &RPCError{Code: CodeUnauthorized, Message: fmt.Sprintf("unauthorized: %s", err)}
		}
		onStop()
		return map[string]bool{"stopped": true}, nil

	case "compile":
		var p compileParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %s", err)}
			}
		}
		if p.Grammar == "" {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "params.grammar is required"}
		}
		result, err := e.Compile(p.Grammar, p.Text)
		if err != nil {
			return nil, &RPCError{Code: CodeFatal, Message: err.Error()}
		}
		return result, nil

	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %q", method)}
	}
}

// handleLine sniffs one line of input per the server protocol's transport
// sniffing rule (first non-whitespace byte) and returns the single-line
// response to write back, along with a requestID assigned for logging.
// onStop is invoked if (and only if) an authorized stop request is
// dispatched.
func handleLine(e *Engine, secret []byte, line string, onStop func()) (response string, requestID string) {
	requestID = uuid.NewString()

	trimmed := trimLeadingSpace(line)
	if trimmed == "" {
		return encodeResponse(errorResponse(nil, CodeInvalidRequest, "empty request")), requestID
	}

	switch trimmed[0] {
	case '{':
		return handleJSONRPCLine(e, secret, trimmed, onStop), requestID
	default:
		if verb, rest, ok := splitHTTPVerb(trimmed); ok {
			return handleEnvelopeLine(e, secret, verb, rest, onStop), requestID
		}
		return handlePlainTextLine(e, trimmed), requestID
	}
}

func handleJSONRPCLine(e *Engine, secret []byte, line string, onStop func()) string {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return encodeResponse(errorResponse(nil, CodeParseError, fmt.Sprintf("parse error: %s", err)))
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return encodeResponse(errorResponse(req.ID, CodeInvalidRequest, "invalid request: jsonrpc must be \"2.0\" and method must be set"))
	}

	token := ""
	if req.Method == "stop" {
		var p stopParams
		if len(req.Params) > 0 {
			json.Unmarshal(req.Params, &p)
		}
		token = p.Token
	}

	result, rpcErr := dispatch(e, secret, req.Method, req.Params, token, onStop)
	if rpcErr != nil {
		return encodeResponse(errorResponse(req.ID, rpcErr.Code, rpcErr.Message))
	}
	return encodeResponse(okResponse(req.ID, result))
}

// envelopeRequest is the body shape expected after the verb and path in an
// HTTP-style envelope line, e.g. `POST /compile {"grammar":"g","text":"x"}`.
type envelopeRequest struct {
	Grammar string `json:"grammar"`
	Text    string `json:"text"`
	Token   string `json:"token"`
}

func handleEnvelopeLine(e *Engine, secret []byte, verb, rest string, onStop func()) string {
	path, body, _ := cutFirstSpace(trimLeadingSpace(rest))
	path = trimTrailingSpace(path)

	var req envelopeRequest
	if body != "" {
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			return encodeResponse(errorResponse(nil, CodeParseError, fmt.Sprintf("parse error: %s", err)))
		}
	}

	var method string
	switch {
	case path == "/status" && verb == "GET":
		method = "identify"
	case path == "/compile" && verb == "POST":
		method = "compile"
	case path == "/stop" && verb == "POST":
		method = "stop"
	default:
		return encodeResponse(errorResponse(nil, CodeMethodNotFound, fmt.Sprintf("no handler for %s %s", verb, path)))
	}

	params, _ := json.Marshal(compileParams{Grammar: req.Grammar, Text: req.Text})
	result, rpcErr := dispatch(e, secret, method, params, req.Token, onStop)
	if rpcErr != nil {
		return encodeResponse(errorResponse(nil, rpcErr.Code, rpcErr.Message))
	}
	return encodeResponse(okResponse(nil, result))
}

// handlePlainTextLine is the bare-text shorthand: compile line against the
// "default" registered grammar and write back only the AST, one
// S-expression per line, with no envelope at all.
func handlePlainTextLine(e *Engine, line string) string {
	result, err := e.Compile("default", line)
	if err != nil {
		return fmt.Sprintf("; error: %s", err)
	}
	if len(result.Errors) > 0 {
		return fmt.Sprintf("; error: %s", result.Errors[0])
	}
	// AsSxpr puts each child on its own indented line; join them so the
	// response stays a single line.
	lines := strings.Split(result.AST, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimLeft(lines[i], " \t")
	}
	return strings.Join(lines, " ")
}

func encodeResponse(resp Response) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"jsonrpc":"2.0","error":{"code":%d,"message":"internal: %s"}}`, CodeServerError, err)
	}
	return string(data)
}

func trimLeadingSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return s[i:]
}

func trimTrailingSpace(s string) string {
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t' || s[i-1] == '\r' || s[i-1] == '\n') {
		i--
	}
	return s[:i]
}

func cutFirstSpace(s string) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// splitHTTPVerb recognizes a leading HTTP-style verb token ("GET", "POST",
// "PUT", "DELETE", "HEAD") at the start of line, returning the rest of the
// line after it.
func splitHTTPVerb(line string) (verb, rest string, ok bool) {
	for _, v := range []string{"GET", "POST", "PUT", "DELETE", "HEAD"} {
		if len(line) > len(v) && line[:len(v)] == v && line[len(v)] == ' ' {
			return v, line[len(v)+1:], true
		}
	}
	return "", "", false
}
