package rpc

import (
	"net/http"

	"bountychain/crypto"
)

type registryInitializeParams struct {
	Caller string `json:"caller"`
}

type registryRotateParams struct {
	Caller   string `json:"caller"`
	NewAdmin string `json:"newAdmin"`
}

func (s *Server) handleRegistryInitialize(w http.ResponseWriter, req *RPCRequest) {
	var params registryInitializeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	caller, err := parseAddressParam(params.Caller)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	if err := s.node.RegistryInitialize(caller); err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, true)
}

func (s *Server) handleRegistryRotateAdmin(w http.ResponseWriter, req *RPCRequest) {
	var params registryRotateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	caller, err := parseAddressParam(params.Caller)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	newAdmin, err := parseAddressParam(params.NewAdmin)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	if err := s.node.RegistryRotateAdmin(caller, newAdmin); err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, true)
}

func (s *Server) handleRegistryAdmin(w http.ResponseWriter, req *RPCRequest) {
	admin, ok := s.node.RegistryAdmin()
	if !ok {
		requestsTotal.WithLabelValues(req.Method, "conflict").Inc()
		writeError(w, http.StatusConflict, req.ID, codeBountyConflict, "conflict", "registry not initialized")
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, crypto.MustNewAddress(admin[:]).String())
}
