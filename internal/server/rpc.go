// Package server exposes the trading engines over HTTP JSON-RPC and a
// websocket event feed. Requests use {"method": ..., "params": [{...}]};
// responses carry a result object with a status field.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"sync"
)

// RPCError is the error half of a method result.
type RPCError struct {
	Code    int    `json:"error_code"`
	Name    string `json:"error"`
	Message string `json:"error_message"`
}

// Error codes.
const (
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInvalidJSON    = -32700
	codeInternal       = -32603
	codeNotFound       = 404
	codeTxFailed       = 1000
)

func rpcErr(code int, name, message string) *RPCError {
	return &RPCError{Code: code, Name: name, Message: message}
}

func errInvalidParams(message string) *RPCError {
	return rpcErr(codeInvalidParams, "invalidParams", message)
}

func errNotFound(message string) *RPCError {
	return rpcErr(codeNotFound, "entryNotFound", message)
}

func errInternal(message string) *RPCError {
	return rpcErr(codeInternal, "internal", message)
}

// MethodFunc handles one RPC method. params is nil when the request
// carried none.
type MethodFunc func(ctx context.Context, params json.RawMessage) (any, *RPCError)

// methodRegistry maps method names to handlers.
type methodRegistry struct {
	mu      sync.RWMutex
	methods map[string]MethodFunc
}

func newMethodRegistry() *methodRegistry {
	return &methodRegistry{methods: make(map[string]MethodFunc)}
}

func (r *methodRegistry) register(name string, fn MethodFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = fn
}

func (r *methodRegistry) get(name string) (MethodFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.methods[name]
	return fn, ok
}

func (r *methodRegistry) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rpcRequest is the wire form of a request.
type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// handleRPC serves the JSON-RPC endpoint.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
		// GET supports parameterless queries, server_info by default.
		method := r.URL.Query().Get("command")
		if method == "" {
			method = "server_info"
		}
		result, rpcErr := s.execute(r.Context(), method, nil)
		writeResponse(w, result, rpcErr)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeResponse(w, nil, errInternal("failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request rpcRequest
	if err := json.Unmarshal(body, &request); err != nil {
		writeResponse(w, nil, rpcErr(codeInvalidJSON, "jsonInvalid", "invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		writeResponse(w, nil, rpcErr(codeInvalidParams, "missingCommand", "missing method field"))
		return
	}

	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	result, rpcError := s.execute(r.Context(), request.Method, params)
	writeResponse(w, result, rpcError)
}

func (s *Server) execute(ctx context.Context, method string, params json.RawMessage) (any, *RPCError) {
	fn, ok := s.registry.get(method)
	if !ok {
		return nil, rpcErr(codeMethodNotFound, "unknownCmd", "unknown method: "+method)
	}
	return fn(ctx, params)
}

func writeResponse(w http.ResponseWriter, result any, rpcError *RPCError) {
	response := make(map[string]any)

	if rpcError != nil {
		response["result"] = map[string]any{
			"status":        "error",
			"error":         rpcError.Name,
			"error_code":    rpcError.Code,
			"error_message": rpcError.Message,
		}
	} else if resultMap, ok := result.(map[string]any); ok {
		resultMap["status"] = "success"
		response["result"] = resultMap
	} else {
		response["result"] = map[string]any{
			"status": "success",
			"data":   result,
		}
	}

	data, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

// decodeParams unmarshals params into v, treating nil params as an error.
func decodeParams(params json.RawMessage, v any) *RPCError {
	if params == nil {
		return errInvalidParams("missing params")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return errInvalidParams("malformed params: " + err.Error())
	}
	return nil
}
