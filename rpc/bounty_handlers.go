package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"bountychain/crypto"
	"bountychain/native/bounty"
)

type bountyCreateParams struct {
	ID                 uint64 `json:"id"`
	Maintainer         string `json:"maintainer"`
	Mint               string `json:"mint"`
	Amount             string `json:"amount"`
	GithubIssueID      uint64 `json:"githubIssueId,omitempty"`
	MaintainerGithubID uint64 `json:"maintainerGithubId,omitempty"`
}

type bountyAssignParams struct {
	ID                  uint64 `json:"id"`
	Caller              string `json:"caller"`
	Contributor         string `json:"contributor"`
	ContributorGithubID uint64 `json:"contributorGithubId,omitempty"`
}

type bountyActorParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

type bountyOverrideParams struct {
	ID          uint64 `json:"id"`
	Caller      string `json:"caller"`
	Contributor string `json:"contributor"`
}

type bountyIDParams struct {
	ID uint64 `json:"id"`
}

type bountyJSON struct {
	ID                  uint64  `json:"id"`
	Maintainer          string  `json:"maintainer"`
	Contributor         *string `json:"contributor,omitempty"`
	Mint                string  `json:"mint"`
	Amount              string  `json:"amount"`
	State               string  `json:"state"`
	GithubIssueID       uint64  `json:"githubIssueId,omitempty"`
	MaintainerGithubID  uint64  `json:"maintainerGithubId,omitempty"`
	ContributorGithubID *uint64 `json:"contributorGithubId,omitempty"`
	CreatedAt           int64   `json:"createdAt"`
}

func bountyToJSON(b *bounty.Bounty) *bountyJSON {
	out := &bountyJSON{
		ID:                 b.ID,
		Maintainer:         crypto.MustNewAddress(b.Maintainer[:]).String(),
		Mint:               b.Mint,
		State:              b.State.String(),
		GithubIssueID:      b.GithubIssueID,
		MaintainerGithubID: b.MaintainerGithubID,
		CreatedAt:          b.CreatedAt,
	}
	if b.Amount != nil {
		out.Amount = b.Amount.String()
	}
	if b.Contributor != nil {
		contributor := crypto.MustNewAddress(b.Contributor[:]).String()
		out.Contributor = &contributor
	}
	if b.ContributorGithubID != nil {
		ghID := *b.ContributorGithubID
		out.ContributorGithubID = &ghID
	}
	return out
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errExactlyOneParam
	}
	return json.Unmarshal(req.Params[0], out)
}

var errExactlyOneParam = jsonError("exactly one parameter object expected")

type jsonError string

func (e jsonError) Error() string { return string(e) }

func parseAddressParam(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

func parsePositiveBigInt(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, jsonError("amount must be a decimal string")
	}
	if amount.Sign() <= 0 {
		return nil, jsonError("amount must be positive")
	}
	return amount, nil
}

func (s *Server) handleBountyCreate(w http.ResponseWriter, req *RPCRequest) {
	var params bountyCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	maintainer, err := parseAddressParam(params.Maintainer)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	record, err := s.node.BountyCreate(params.ID, maintainer, params.Mint, amount, params.GithubIssueID, params.MaintainerGithubID)
	if err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, bountyToJSON(record))
}

func (s *Server) handleBountyAssign(w http.ResponseWriter, req *RPCRequest) {
	var params bountyAssignParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	caller, err := parseAddressParam(params.Caller)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	contributor, err := parseAddressParam(params.Contributor)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	if err := s.node.BountyAssign(params.ID, caller, contributor, params.ContributorGithubID); err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, true)
}

func (s *Server) handleBountyComplete(w http.ResponseWriter, req *RPCRequest) {
	s.handleBountyActorOp(w, req, s.node.BountyComplete)
}

func (s *Server) handleBountyCancel(w http.ResponseWriter, req *RPCRequest) {
	s.handleBountyActorOp(w, req, s.node.BountyCancel)
}

func (s *Server) handleBountyActorOp(w http.ResponseWriter, req *RPCRequest, op func(uint64, [20]byte) error) {
	var params bountyActorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	caller, err := parseAddressParam(params.Caller)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	if err := op(params.ID, caller); err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, true)
}

func (s *Server) handleBountyAdminOverrideRelease(w http.ResponseWriter, req *RPCRequest) {
	var params bountyOverrideParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	caller, err := parseAddressParam(params.Caller)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	contributor, err := parseAddressParam(params.Contributor)
	if err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	if err := s.node.BountyAdminOverrideRelease(params.ID, caller, contributor); err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, true)
}

func (s *Server) handleBountyGet(w http.ResponseWriter, req *RPCRequest) {
	var params bountyIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeInvalidParams(w, req, err)
		return
	}
	record, err := s.node.BountyGet(params.ID)
	if err != nil {
		writeEngineError(w, req, err)
		return
	}
	requestsTotal.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, bountyToJSON(record))
}

func writeInvalidParams(w http.ResponseWriter, req *RPCRequest, err error) {
	requestsTotal.WithLabelValues(req.Method, "invalid_params").Inc()
	writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
}
