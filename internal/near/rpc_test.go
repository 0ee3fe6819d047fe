package near

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is a minimal NEAR JSON-RPC endpoint backed by in-memory state.
type fakeNode struct {
	t *testing.T

	mu         sync.Mutex
	accounts   map[string]AccountView
	nonce      uint64
	views      map[string]string // method -> JSON result
	failTx     bool
	lostReply  bool
	calls      []string
	broadcasts [][]byte
	delay      time.Duration
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	n := &fakeNode{
		t:        t,
		accounts: map[string]AccountView{},
		views:    map[string]string{},
		nonce:    10,
	}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *fakeNode) blockHash() string {
	return base58.Encode(bytes.Repeat([]byte{9}, 32))
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string          `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))

	if n.delay > 0 {
		time.Sleep(n.delay)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	reply := func(result any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}
	fail := func(cause string) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]any{
				"name":    "HANDLER_ERROR",
				"cause":   map[string]any{"name": cause},
				"code":    -32000,
				"message": "Server error",
			},
		})
	}

	switch req.Method {
	case "EXPERIMENTAL_protocol_config":
		n.calls = append(n.calls, req.Method)
		reply(map[string]any{"runtime_config": map[string]any{"storage_amount_per_byte": "10000000000000000000"}})

	case "broadcast_tx_commit":
		n.calls = append(n.calls, req.Method)
		var params []string
		require.NoError(n.t, json.Unmarshal(req.Params, &params))
		raw, err := base64.StdEncoding.DecodeString(params[0])
		require.NoError(n.t, err)
		n.broadcasts = append(n.broadcasts, raw)
		if n.lostReply {
			http.Error(w, "upstream timed out", http.StatusGatewayTimeout)
			return
		}
		status := map[string]any{"SuccessValue": ""}
		if n.failTx {
			status = map[string]any{"Failure": map[string]any{"ActionError": map[string]any{"index": 0}}}
		}
		reply(map[string]any{"status": status, "transaction": map[string]any{"hash": "TxHash111"}})

	case "query":
		var q map[string]string
		require.NoError(n.t, json.Unmarshal(req.Params, &q))
		n.calls = append(n.calls, q["request_type"])

		switch q["request_type"] {
		case "view_account":
			acc, ok := n.accounts[q["account_id"]]
			if !ok {
				fail("UNKNOWN_ACCOUNT")
				return
			}
			reply(acc)
		case "view_access_key":
			reply(map[string]any{"nonce": n.nonce, "permission": "FullAccess", "block_hash": n.blockHash(), "block_height": 100})
		case "call_function":
			res, ok := n.views[q["method_name"]]
			if !ok {
				reply(map[string]any{"error": "MethodNotFound", "logs": []string{}})
				return
			}
			ints := make([]int, len(res))
			for i, b := range []byte(res) {
				ints[i] = int(b)
			}
			reply(map[string]any{"result": ints, "logs": []string{}, "block_height": 100, "block_hash": n.blockHash()})
		default:
			fail("UNKNOWN_REQUEST")
		}

	default:
		fail("METHOD_NOT_FOUND")
	}
}

func TestViewAccountAndBalance(t *testing.T) {
	node, srv := newFakeNode(t)
	node.accounts["a.testnet"] = AccountView{Amount: "5000000000000000000000000", Locked: "0", StorageUsage: 100}

	conn, err := Connect(ConnectionConfig{NetworkID: "testnet", NodeURL: srv.URL})
	require.NoError(t, err)

	bal, err := conn.Account("a.testnet").Balance(context.Background())
	require.NoError(t, err)

	// 100 bytes * 1e19 = 1e21 reserved for storage
	assert.Equal(t, "4999000000000000000000000", bal.Available.String())
	assert.Equal(t, "5000000000000000000000000", bal.Total.String())

	// protocol config is fetched once
	_, err = conn.Account("a.testnet").Balance(context.Background())
	require.NoError(t, err)
	count := 0
	for _, c := range node.calls {
		if c == "EXPERIMENTAL_protocol_config" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestComputeBalanceUsesLargerReservation(t *testing.T) {
	bal, err := computeBalance(&AccountView{Amount: "100", Locked: "50", StorageUsage: 2}, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, "150", bal.Total.String())
	assert.Equal(t, "100", bal.Available.String())

	bal, err = computeBalance(&AccountView{Amount: "10", StorageUsage: 5}, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, "0", bal.Available.String())
}

func TestRPCErrorDecoded(t *testing.T) {
	_, srv := newFakeNode(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.ViewAccount(context.Background(), "ghost.testnet")
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "UNKNOWN_ACCOUNT", rpcErr.CauseName())
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Contains(t, rpcErr.Error(), "UNKNOWN_ACCOUNT")
}

func TestCallTimeout(t *testing.T) {
	node, srv := newFakeNode(t)
	node.delay = 200 * time.Millisecond
	node.accounts["a.testnet"] = AccountView{Amount: "1"}

	c, err := NewClient(srv.URL, WithCallTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ViewAccount(context.Background(), "a.testnet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestObserverSeesEveryCall(t *testing.T) {
	node, srv := newFakeNode(t)
	node.accounts["a.testnet"] = AccountView{Amount: "1"}

	var seen []string
	c, err := NewClient(srv.URL, WithObserver(func(method string, _ time.Duration, err error) {
		seen = append(seen, method)
	}))
	require.NoError(t, err)

	_, _ = c.ViewAccount(context.Background(), "a.testnet")
	_, _ = c.ProtocolConfig(context.Background())
	assert.Equal(t, []string{"query", "EXPERIMENTAL_protocol_config"}, seen)
}

func TestSendMoneySignsAndBroadcasts(t *testing.T) {
	node, srv := newFakeNode(t)
	kp := testEd25519Key(t)

	ks := NewInMemoryKeyStore()
	ks.SetKey("testnet", "a.testnet", kp)
	conn, err := Connect(ConnectionConfig{NetworkID: "testnet", NodeURL: srv.URL, KeyStore: ks, ExplorerURL: "https://explorer.testnet.near.org/"})
	require.NoError(t, err)

	yocto, _ := new(big.Int).SetString("5000000000000000000000000", 10)
	out, err := conn.Account("a.testnet").SendMoney(context.Background(), "b.testnet", yocto)
	require.NoError(t, err)
	assert.Equal(t, "TxHash111", out.Transaction.Hash)
	assert.Equal(t, "https://explorer.testnet.near.org/transactions/TxHash111", conn.ExplorerTxURL(out.Transaction.Hash))

	require.Len(t, node.broadcasts, 1)
	raw := node.broadcasts[0]

	// rebuild the unsigned transaction and check the signature over it
	var blockHash [32]byte
	copy(blockHash[:], bytes.Repeat([]byte{9}, 32))
	tx := &Transaction{
		SignerID:   "a.testnet",
		PublicKey:  kp.PublicKey(),
		Nonce:      11,
		ReceiverID: "b.testnet",
		BlockHash:  blockHash,
		Actions:    []Action{TransferAction{Deposit: yocto}},
	}
	hash, unsigned, err := tx.Hash()
	require.NoError(t, err)
	require.Equal(t, unsigned, raw[:len(unsigned)])
	assert.True(t, kp.Verify(hash[:], Signature{Type: KeyTypeED25519, Data: raw[len(unsigned)+1:]}))
}

func TestSendMoneyWithoutKey(t *testing.T) {
	node, srv := newFakeNode(t)
	conn, err := Connect(ConnectionConfig{NetworkID: "testnet", NodeURL: srv.URL})
	require.NoError(t, err)

	_, err = conn.Account("a.testnet").SendMoney(context.Background(), "b.testnet", big.NewInt(1))
	assert.True(t, errors.Is(err, ErrNoKey))
	assert.Empty(t, node.calls)
}

func TestBroadcastFailureIsTxFailure(t *testing.T) {
	node, srv := newFakeNode(t)
	node.failTx = true
	ks := NewInMemoryKeyStore()
	ks.SetKey("testnet", "a.testnet", testEd25519Key(t))
	conn, err := Connect(ConnectionConfig{NetworkID: "testnet", NodeURL: srv.URL, KeyStore: ks})
	require.NoError(t, err)

	out, err := conn.Account("a.testnet").SendMoney(context.Background(), "b.testnet", big.NewInt(1))
	var txErr *TxFailure
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "TxHash111", txErr.Hash)
	require.NotNil(t, out)
}

func TestBroadcastTransportErrorKeepsLocalHash(t *testing.T) {
	node, srv := newFakeNode(t)
	node.lostReply = true
	kp := testEd25519Key(t)
	ks := NewInMemoryKeyStore()
	ks.SetKey("testnet", "a.testnet", kp)
	conn, err := Connect(ConnectionConfig{NetworkID: "testnet", NodeURL: srv.URL, KeyStore: ks})
	require.NoError(t, err)

	out, err := conn.Account("a.testnet").SendMoney(context.Background(), "b.testnet", big.NewInt(1))
	require.Error(t, err)
	var txErr *TxFailure
	assert.False(t, errors.As(err, &txErr))
	require.Len(t, node.broadcasts, 1)

	var blockHash [32]byte
	copy(blockHash[:], bytes.Repeat([]byte{9}, 32))
	tx := &Transaction{
		SignerID:   "a.testnet",
		PublicKey:  kp.PublicKey(),
		Nonce:      11,
		ReceiverID: "b.testnet",
		BlockHash:  blockHash,
		Actions:    []Action{TransferAction{Deposit: big.NewInt(1)}},
	}
	hash, _, err := tx.Hash()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, base58.Encode(hash[:]), out.Transaction.Hash)
}
