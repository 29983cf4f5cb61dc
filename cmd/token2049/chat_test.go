package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/engine"
	"github.com/derek2403/token2049/executor"
	"github.com/derek2403/token2049/gateway"
	"github.com/derek2403/token2049/relay"
)

const (
	testWallet = "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
	testPayee  = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0"
)

type onceCompleter struct {
	resp gateway.Response
	used bool
}

func (c *onceCompleter) Complete(context.Context, []core.ChatTurn, string) (gateway.Response, error) {
	if c.used {
		return gateway.Response{Type: gateway.TypeMessage, Text: "Anything else?"}, nil
	}
	c.used = true
	return c.resp, nil
}

type countingSigner struct{ sent int }

func (s *countingSigner) Address() string { return testWallet }
func (s *countingSigner) ChainID() int64  { return core.ChainCeloMainnet }
func (s *countingSigner) SignAndSend(context.Context, core.ChainTx) (string, error) {
	s.sent++
	return "0x" + strings.Repeat("ab", 32), nil
}

func newConsole(t *testing.T, input string, resp gateway.Response) (*console, *countingSigner, *bytes.Buffer) {
	t.Helper()
	signer := &countingSigner{}
	r := relay.New(relay.NewMemoryStore())
	a := &app{
		relay:  r,
		signer: signer,
		engine: engine.New(&onceCompleter{resp: resp}, executor.New(nil),
			engine.WithRelay(r),
			engine.WithSigners(engine.StaticSigner(signer))),
	}
	sess, err := a.engine.CreateSession(testWallet)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &console{
		app:     a,
		session: sess.ID,
		wallet:  testWallet,
		in:      bufio.NewScanner(strings.NewReader(input)),
		out:     out,
	}, signer, out
}

func transferCall() gateway.Response {
	return gateway.Response{
		Type:      gateway.TypeFunctionCall,
		Name:      "transfer_funds",
		Arguments: `{"destinationAddress":"` + testPayee + `","amount":"5","tokenSymbol":"CELO"}`,
	}
}

func TestConsoleConfirmsAction(t *testing.T) {
	c, signer, out := newConsole(t, "send 5 CELO\ny\n/quit\n", transferCall())
	require.NoError(t, c.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Connected as "+testWallet)
	assert.Contains(t, text, "Ready to transfer 5 CELO to "+testPayee)
	assert.Contains(t, text, "Transfer 5 CELO to "+testPayee)
	assert.Contains(t, text, "Transaction submitted! Waiting for confirmation...")
	assert.Contains(t, text, "https://celoscan.io/tx/0x")
	assert.Equal(t, 1, signer.sent)
}

func TestConsoleCancelsByDefault(t *testing.T) {
	c, signer, out := newConsole(t, "send 5 CELO\n\n", transferCall())
	require.NoError(t, c.run(context.Background()))

	assert.Contains(t, out.String(), "Transfer cancelled. How else can I help you?")
	assert.Zero(t, signer.sent)
}

func TestConsoleRequests(t *testing.T) {
	c, signer, out := newConsole(t, "/requests\n", transferCall())
	ids, err := c.app.relay.Publish(context.Background(), core.NotificationRecord{
		From:        testPayee,
		FromName:    "Dana",
		To:          testWallet,
		Amount:      "12",
		TokenSymbol: core.TokenCUSD,
		Description: "lunch",
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	c.in = bufio.NewScanner(strings.NewReader("/requests\n/pay " + ids[0] + "\n/requests\n"))

	require.NoError(t, c.run(context.Background()))
	text := out.String()
	assert.Contains(t, text, "["+ids[0]+"] Dana ("+strings.ToLower(testPayee)+") requests 12 cUSD for lunch")
	assert.Contains(t, text, "notifications: "+ids[0])
	assert.Contains(t, text, "No pending payment requests.")
	assert.Equal(t, 1, signer.sent)
}

func TestFormatRequest(t *testing.T) {
	assert.Equal(t, "[n1] 0xabc requests 3 CELO",
		formatRequest(core.NotificationRecord{ID: "n1", From: "0xabc", Amount: "3", TokenSymbol: core.TokenCELO}))
}
