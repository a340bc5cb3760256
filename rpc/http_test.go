package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"bountychain/core"
	"bountychain/crypto"
	"bountychain/storage"
)

const testMint = "OCTA"

func newTestServer(t *testing.T) (*Server, *core.Node, crypto.Address, crypto.Address) {
	t.Helper()
	node := core.NewNode(storage.NewMemDB(), core.Options{})

	maintainerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	maintainer := maintainerKey.PubKey().Address()

	adminKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	admin := adminKey.PubKey().Address()

	require.NoError(t, node.TokenMint(maintainer.Raw(), testMint, big.NewInt(1_000_000)))
	require.NoError(t, node.RegistryInitialize(admin.Raw()))

	return NewServer(node, nil), node, maintainer, admin
}

func callRPC(t *testing.T, server *Server, method string, params interface{}) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":%q,"params":[%s]}`, method, raw)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	server.handle(recorder, req)

	var resp RPCResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return recorder, resp
}

func TestBountyCreateAndGet(t *testing.T) {
	server, node, maintainer, _ := newTestServer(t)

	recorder, resp := callRPC(t, server, "bounty_create", map[string]interface{}{
		"id":            1,
		"maintainer":    maintainer.String(),
		"mint":          testMint,
		"amount":        "1000",
		"githubIssueId": 42,
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Nil(t, resp.Error)

	record, err := node.BountyGet(1)
	require.NoError(t, err)
	require.Zero(t, record.Amount.Cmp(big.NewInt(1000)))

	recorder, resp = callRPC(t, server, "bounty_get", map[string]interface{}{"id": 1})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "created", result["state"])
	require.Equal(t, maintainer.String(), result["maintainer"])
}

func TestBountyCreateRejectsBadAddress(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	recorder, resp := callRPC(t, server, "bounty_create", map[string]interface{}{
		"id":         1,
		"maintainer": "not-an-address",
		"mint":       testMint,
		"amount":     "1000",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestLifecycleErrorMapping(t *testing.T) {
	server, _, maintainer, admin := newTestServer(t)

	_, resp := callRPC(t, server, "bounty_create", map[string]interface{}{
		"id":         1,
		"maintainer": maintainer.String(),
		"mint":       testMint,
		"amount":     "1000",
	})
	require.Nil(t, resp.Error)

	// Complete before assign: lifecycle conflict.
	recorder, resp := callRPC(t, server, "bounty_complete", map[string]interface{}{
		"id":     1,
		"caller": maintainer.String(),
	})
	require.Equal(t, http.StatusConflict, recorder.Code)
	require.Equal(t, codeBountyConflict, resp.Error.Code)

	// A stranger cancelling: forbidden.
	strangerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	recorder, resp = callRPC(t, server, "bounty_cancel", map[string]interface{}{
		"id":     1,
		"caller": strangerKey.PubKey().Address().String(),
	})
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, codeBountyForbidden, resp.Error.Code)

	// Unknown record: not found.
	recorder, resp = callRPC(t, server, "bounty_cancel", map[string]interface{}{
		"id":     99,
		"caller": maintainer.String(),
	})
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, codeBountyNotFound, resp.Error.Code)

	// Admin rotation through RPC takes effect for overrides.
	newAdminKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	newAdmin := newAdminKey.PubKey().Address()
	_, resp = callRPC(t, server, "registry_rotateAdmin", map[string]interface{}{
		"caller":   admin.String(),
		"newAdmin": newAdmin.String(),
	})
	require.Nil(t, resp.Error)

	contributorKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	recorder, resp = callRPC(t, server, "bounty_adminOverrideRelease", map[string]interface{}{
		"id":          1,
		"caller":      admin.String(),
		"contributor": contributorKey.PubKey().Address().String(),
	})
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder, resp = callRPC(t, server, "bounty_adminOverrideRelease", map[string]interface{}{
		"id":          1,
		"caller":      newAdmin.String(),
		"contributor": contributorKey.PubKey().Address().String(),
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Nil(t, resp.Error)
}

func TestRegistryAdminQuery(t *testing.T) {
	server, _, _, admin := newTestServer(t)
	recorder, resp := callRPC(t, server, "registry_admin", map[string]interface{}{})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, admin.String(), resp.Result)
}

func TestAuthTokenRequired(t *testing.T) {
	server, _, maintainer, _ := newTestServer(t)
	server.authToken = "secret-token"

	recorder, resp := callRPC(t, server, "bounty_get", map[string]interface{}{"id": 1})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"bounty_create","params":[{"id":1,"maintainer":%q,"mint":%q,"amount":"10"}]}`, maintainer.String(), testMint)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer secret-token")
	authed := httptest.NewRecorder()
	server.handle(authed, req)
	require.Equal(t, http.StatusOK, authed.Code)
}

func TestUnknownMethod(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	recorder, resp := callRPC(t, server, "bounty_unknown", map[string]interface{}{})
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}
