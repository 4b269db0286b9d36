package server

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/quovi/discover/internal/discover"
	"github.com/quovi/discover/internal/errors"
	"github.com/quovi/discover/internal/restaurant"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		s.respondWithRPCError(w, nil, rpcError{Code: codeParseError, Message: "Parse error"})
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithRPCError(w, request.ID, rpcError{Code: codeInvalidRequest, Message: "Invalid Request"})
		return
	}

	// Route to appropriate handler
	var (
		result interface{}
		err    error
	)
	switch request.Method {
	case "discover.recommend":
		var req discover.Request
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.svc.Discover(r.Context(), req)
		}
	case "weather.classify":
		var loc restaurant.Location
		if err = decodeParams(request.Params, &loc); err == nil {
			result, err = s.svc.Weather(r.Context(), loc)
		}
	case "embeddings.clear":
		s.svc.ClearEmbeddings()
		result = map[string]string{"status": "cleared"}
	case "embeddings.stats":
		result = s.embeddingStats()
	default:
		s.respondWithRPCError(w, request.ID, rpcError{Code: codeMethodNotFound, Message: "Method not found"})
		return
	}

	if err != nil {
		s.respondWithRPCError(w, request.ID, toRPCError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// decodeParams accepts params given as an object or as a one element array.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New("missing required parameters").WithKind(errors.KindInvalidInput)
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) != 1 {
			return errors.New("params must be an object or a one element array").WithKind(errors.KindInvalidInput)
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "invalid params").WithKind(errors.KindInvalidInput)
	}
	return nil
}

func toRPCError(err error) rpcError {
	kind := errors.KindOf(err)
	status := errors.HTTPStatus(err)

	code := codeServerError
	if kind == errors.KindInvalidInput {
		code = codeInvalidParams
	}
	return rpcError{
		Code:    code,
		Message: publicMessage(err, status),
		Data:    map[string]interface{}{"kind": kind, "status": status},
	}
}

// respondWithRPCError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithRPCError(w http.ResponseWriter, id interface{}, e rpcError) {
	fields := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Code == codeServerError {
		s.logger.Error("RPC error", fields)
	} else {
		s.logger.Debug("RPC request rejected", fields)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error":   e,
		"id":      id,
	})
}
