package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bountychain/core"
	"bountychain/core/state"
	"bountychain/native/bounty"
	"bountychain/native/registry"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codeBountyNotFound  = -32022
	codeBountyForbidden = -32023
	codeBountyConflict  = -32024
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bountychain_rpc_requests_total",
	Help: "JSON-RPC requests by method and result.",
}, []string{"method", "result"})

type Server struct {
	node      *core.Node
	authToken string
	log       *slog.Logger
}

func NewServer(node *core.Node, log *slog.Logger) *Server {
	token := strings.TrimSpace(os.Getenv("BOUNTY_RPC_TOKEN"))
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		node:      node,
		authToken: token,
		log:       log,
	}
}

func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "unauthorized", Data: "missing bearer token"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "unauthorized", Data: "invalid bearer token"}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "invalid_request", "POST required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "parse_error", err.Error())
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "parse_error", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid_request", "jsonrpc must be 2.0")
		return
	}
	if authErr := s.requireAuth(r); authErr != nil {
		requestsTotal.WithLabelValues(req.Method, "unauthorized").Inc()
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}

	switch req.Method {
	case "bounty_create":
		s.handleBountyCreate(w, &req)
	case "bounty_assign":
		s.handleBountyAssign(w, &req)
	case "bounty_complete":
		s.handleBountyComplete(w, &req)
	case "bounty_cancel":
		s.handleBountyCancel(w, &req)
	case "bounty_adminOverrideRelease":
		s.handleBountyAdminOverrideRelease(w, &req)
	case "bounty_get":
		s.handleBountyGet(w, &req)
	case "registry_initialize":
		s.handleRegistryInitialize(w, &req)
	case "registry_rotateAdmin":
		s.handleRegistryRotateAdmin(w, &req)
	case "registry_admin":
		s.handleRegistryAdmin(w, &req)
	default:
		requestsTotal.WithLabelValues(req.Method, "method_not_found").Inc()
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method_not_found", fmt.Sprintf("unknown method %q", req.Method))
	}
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message, Data: data}})
}

// writeEngineError maps engine failures onto distinct codes so callers can
// tell invalid input from authorization failures from lifecycle conflicts.
func writeEngineError(w http.ResponseWriter, req *RPCRequest, err error) {
	switch {
	case errors.Is(err, bounty.ErrNotFound):
		requestsTotal.WithLabelValues(req.Method, "not_found").Inc()
		writeError(w, http.StatusNotFound, req.ID, codeBountyNotFound, "not_found", err.Error())
	case errors.Is(err, bounty.ErrUnauthorized),
		errors.Is(err, bounty.ErrInvalidAuthority),
		errors.Is(err, registry.ErrUnauthorized):
		requestsTotal.WithLabelValues(req.Method, "forbidden").Inc()
		writeError(w, http.StatusForbidden, req.ID, codeBountyForbidden, "forbidden", err.Error())
	case errors.Is(err, bounty.ErrInvalidState),
		errors.Is(err, bounty.ErrContributorAssigned),
		errors.Is(err, bounty.ErrExists),
		errors.Is(err, registry.ErrAlreadyInitialized),
		errors.Is(err, registry.ErrNotInitialized):
		requestsTotal.WithLabelValues(req.Method, "conflict").Inc()
		writeError(w, http.StatusConflict, req.ID, codeBountyConflict, "conflict", err.Error())
	case errors.Is(err, bounty.ErrZeroAmount),
		errors.Is(err, bounty.ErrInsufficientAmount),
		errors.Is(err, bounty.ErrInvalidMint),
		errors.Is(err, bounty.ErrInvalidContributor),
		errors.Is(err, bounty.ErrMintMismatch),
		errors.Is(err, bounty.ErrTokenAccountOwner),
		errors.Is(err, bounty.ErrContributorMismatch),
		errors.Is(err, bounty.ErrAmountOverflow),
		errors.Is(err, bounty.ErrInsufficientFunds),
		errors.Is(err, registry.ErrInvalidAdmin),
		errors.Is(err, registry.ErrUnchangedAdmin),
		errors.Is(err, state.ErrInsufficientFunds),
		errors.Is(err, state.ErrMintMismatch):
		requestsTotal.WithLabelValues(req.Method, "invalid_params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
	default:
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "internal_error", err.Error())
	}
}
