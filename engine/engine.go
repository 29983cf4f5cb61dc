package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/executor"
	"github.com/derek2403/token2049/gateway"
	"github.com/derek2403/token2049/intent"
	"github.com/derek2403/token2049/memory"
	"github.com/derek2403/token2049/relay"
	"github.com/derek2403/token2049/resolver"
	"github.com/derek2403/token2049/tools"
)

// ErrActionInFlight is returned when an action is confirmed or cancelled
// while its transaction is already submitted.
var ErrActionInFlight = errors.New("action is already submitted")

// DefaultConfirmationTTL is how long a prepared action can be confirmed.
const DefaultConfirmationTTL = 10 * time.Minute

// SignerFunc returns the signer for a connected wallet, or nil when the
// wallet cannot sign from here.
type SignerFunc func(wallet string) core.Signer

// StaticSigner serves one signer for its own address only.
func StaticSigner(signer core.Signer) SignerFunc {
	return func(wallet string) core.Signer {
		if signer != nil && strings.EqualFold(signer.Address(), wallet) {
			return signer
		}
		return nil
	}
}

// Engine runs the payment pipeline: resolve the message, ask the model,
// validate what it proposes, wait for confirmation, then execute.
type Engine struct {
	completer gateway.Completer
	executor  *executor.Executor
	registry  *tools.Registry
	validator *intent.Validator
	directory *resolver.Directory
	converter resolver.Converter
	relay     *relay.Relay
	signers   SignerFunc

	guardrails Guardrails     // Optional: per-wallet rate limiting
	audit      AuditLogger    // Optional: audit logging
	memory     memory.Manager // Optional: past actions for the prompt

	sessions     *Sessions
	systemPrompt string
	window       int
	confirmTTL   time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithGuardrails sets the guardrails implementation for rate limiting.
func WithGuardrails(g Guardrails) Option {
	return func(e *Engine) {
		e.guardrails = g
	}
}

// WithAudit sets the audit logger implementation.
func WithAudit(a AuditLogger) Option {
	return func(e *Engine) {
		e.audit = a
	}
}

// WithMemory configures the engine with a memory manager.
func WithMemory(m memory.Manager) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithRelay publishes confirmed payment requests through r.
func WithRelay(r *relay.Relay) Option {
	return func(e *Engine) {
		e.relay = r
	}
}

// WithDirectory sets the contact directory used for @mentions.
func WithDirectory(d *resolver.Directory) Option {
	return func(e *Engine) {
		e.directory = d
	}
}

// WithConverter sets the $amount conversion policy.
func WithConverter(c resolver.Converter) Option {
	return func(e *Engine) {
		e.converter = c
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *intent.Validator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithRegistry replaces the default function catalogue.
func WithRegistry(r *tools.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSigners sets how connected wallets find their signer.
func WithSigners(f SignerFunc) Option {
	return func(e *Engine) {
		e.signers = f
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) {
		e.systemPrompt = prompt
	}
}

// WithHistoryWindow sets how many trailing turns are sent to the model.
func WithHistoryWindow(n int) Option {
	return func(e *Engine) {
		e.window = n
	}
}

// WithConfirmationTTL sets how long prepared actions stay confirmable.
func WithConfirmationTTL(d time.Duration) Option {
	return func(e *Engine) {
		e.confirmTTL = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine. A nil executor is replaced by one without a
// default signer.
func New(completer gateway.Completer, exec *executor.Executor, opts ...Option) *Engine {
	e := &Engine{
		completer:    completer,
		executor:     exec,
		registry:     tools.DefaultRegistry(),
		validator:    intent.NewValidator(),
		converter:    resolver.NewFixedConverter(core.TokenCUSD),
		sessions:     NewSessions(),
		systemPrompt: DefaultSystemPrompt,
		window:       gateway.DefaultHistoryWindow,
		confirmTTL:   DefaultConfirmationTTL,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		e.executor = executor.New(nil, executor.WithLogger(e.logger))
	}
	e.logger = e.logger.Named("engine")
	return e
}

// Directory returns the contact directory, which may be nil.
func (e *Engine) Directory() *resolver.Directory {
	return e.directory
}

// Relay returns the notification relay, which may be nil.
func (e *Engine) Relay() *relay.Relay {
	return e.relay
}

// CreateSession starts a chat, optionally with a connected wallet.
func (e *Engine) CreateSession(wallet string) (*Session, error) {
	if wallet != "" && !intent.IsAddress(wallet) {
		return nil, errors.Wrapf(core.ErrValidation, "invalid wallet address %q", wallet)
	}
	s := e.sessions.Create(e.now())
	if wallet != "" {
		s.mu.Lock()
		s.connect(wallet, e.signerFor(wallet))
		s.mu.Unlock()
	}
	e.logger.Debug("session created", zap.String("session", s.ID), zap.String("wallet", wallet))
	return s, nil
}

// Session returns a live session.
func (e *Engine) Session(id string) (*Session, error) {
	return e.sessions.Get(id)
}

// CloseSession ends a session and drops its pending actions.
func (e *Engine) CloseSession(id string) {
	e.sessions.Close(id)
}

// Connect switches the session's wallet. An empty wallet disconnects.
func (e *Engine) Connect(sessionID, wallet string) error {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if wallet != "" && !intent.IsAddress(wallet) {
		return errors.Wrapf(core.ErrValidation, "invalid wallet address %q", wallet)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connect(wallet, e.signerFor(wallet))
	return nil
}

// OutputType indicates the kind of output from the engine.
type OutputType string

const (
	// OutputComplete is a plain assistant reply.
	OutputComplete OutputType = "message"

	// OutputConfirmationNeeded carries a pending action for the user to approve.
	OutputConfirmationNeeded OutputType = "confirmation"

	// OutputResult reports an executed action.
	OutputResult OutputType = "result"

	// OutputError is a failure rendered as a chat message.
	OutputError OutputType = "error"
)

// Output is the engine's answer to one operation.
type Output struct {
	Type OutputType `json:"type"`
	Text string     `json:"text"`

	ProcessedText string                 `json:"processedText,omitempty"`
	Mentions      []core.ResolvedMention `json:"mentions,omitempty"`
	Amounts       []core.ResolvedAmount  `json:"amounts,omitempty"`

	// PendingAction is set when Type is OutputConfirmationNeeded.
	PendingAction *core.PendingAction `json:"pendingAction,omitempty"`
	Split         *intent.Split       `json:"split,omitempty"`
	Validation    *intent.Validation  `json:"validation,omitempty"`

	// State and Result are set when Type is OutputResult.
	State         core.ExecutionState `json:"state,omitempty"`
	Result        *core.ActionResult  `json:"result,omitempty"`
	Notifications []string            `json:"notifications,omitempty"`

	// Warning reports a problem that did not fail the operation.
	Warning string `json:"warning,omitempty"`

	// Error is set when Type is OutputError.
	Error error `json:"-"`
}

// Handle processes one user message.
func (e *Engine) Handle(ctx context.Context, sessionID, text, wallet string) (*Output, error) {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Wrap(core.ErrValidation, "empty message")
	}
	if wallet != "" && !intent.IsAddress(wallet) {
		return nil, errors.Wrapf(core.ErrValidation, "invalid wallet address %q", wallet)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if wallet != "" && !strings.EqualFold(wallet, s.wallet) {
		s.connect(wallet, e.signerFor(wallet))
	}
	key := s.wallet
	if key == "" {
		key = s.ID
	}

	if e.guardrails != nil {
		result, err := e.guardrails.Check(ctx, key)
		if err != nil {
			return &Output{Type: OutputError, Text: msgProcessingFailed, Error: errors.Wrap(err, "guardrails check failed")}, nil
		}
		if !result.Allowed {
			return &Output{Type: OutputError, Text: result.Warning, Error: errors.Wrap(core.ErrRateLimited, result.Warning)}, nil
		}
	}

	resolved := resolver.Resolve(text, e.directory, e.rate(ctx))
	s.append(core.UserTurn(resolved.ProcessedText))
	out := &Output{
		ProcessedText: resolved.ProcessedText,
		Mentions:      resolved.Mentions,
		Amounts:       resolved.Amounts,
	}

	resp, err := e.completer.Complete(ctx, gateway.Window(s.history, e.window), e.prompt(ctx, s.wallet, resolved.ProcessedText))
	if err != nil {
		e.logger.Warn("completion failed", zap.String("session", s.ID), zap.Error(err))
		s.append(core.AssistantTurn(msgCompletionFailed))
		out.Type = OutputError
		out.Text = msgCompletionFailed
		out.Error = err
		return out, nil
	}

	if e.guardrails != nil {
		e.guardrails.RecordSuccess(ctx, key)
	}

	if resp.Type != gateway.TypeFunctionCall {
		s.append(core.AssistantTurn(resp.Text))
		out.Type = OutputComplete
		out.Text = resp.Text
		return out, nil
	}

	call := resp.FunctionCall()
	s.append(core.ChatTurn{Role: core.RoleAssistant, FunctionCall: call})
	e.prepare(s, call, out)
	return out, nil
}

// prepare turns a function call into a pending action, or into the
// follow-up message explaining why it cannot be one yet. Callers hold s.mu.
func (e *Engine) prepare(s *Session, call *core.FunctionCall, out *Output) {
	reply := func(typ OutputType, text string, err error) {
		s.append(core.FunctionResultTurn(call.Name, text))
		out.Type = typ
		out.Text = text
		out.Error = err
	}

	kind, fields, err := intent.ParseArguments(call.Name, call.Arguments)
	if err != nil {
		e.logger.Warn("unusable function call", zap.String("function", call.Name), zap.Error(err))
		reply(OutputError, msgProcessingFailed, err)
		return
	}
	if s.wallet == "" {
		reply(OutputError, noWalletMessage(kind), core.ErrNoSigner)
		return
	}

	if v := e.validator.Validate(kind, fields); !v.Valid {
		out.Validation = &v
		reply(OutputComplete, validationMessage(v), nil)
		return
	}
	req, split, err := e.validator.Build(kind, fields)
	if err != nil {
		reply(OutputComplete, capitalize(strings.TrimSuffix(err.Error(), ": "+core.ErrValidation.Error()))+".", err)
		return
	}

	input, err := json.Marshal(req)
	if err != nil {
		reply(OutputError, msgProcessingFailed, errors.Wrap(err, "marshal request"))
		return
	}
	key := GenerateIdempotencyKey(s.wallet, call.Name, input)
	now := e.now()

	pending := findByKey(s.pending, key)
	if pending == nil {
		pending = &core.PendingAction{
			ID:             shortuuid.New(),
			IdempotencyKey: key,
			SessionID:      s.ID,
			Request:        req,
			Summary:        readyMessage(req),
			CreatedAt:      now.Unix(),
		}
		if def, ok := e.registry.Get(call.Name); ok {
			pending.Summary = def.Summary(input)
		}
		s.pending[pending.ID] = pending
	}
	pending.State = core.StatePending
	pending.ExpiresAt = now.Add(e.confirmTTL).Unix()

	e.logger.Info("action awaiting confirmation",
		zap.String("session", s.ID),
		zap.String("action", pending.ID),
		zap.String("function", call.Name))

	reply(OutputConfirmationNeeded, readyMessage(req), nil)
	cp := *pending
	out.PendingAction = &cp
	out.Split = split
}

func findByKey(pending map[string]*core.PendingAction, key string) *core.PendingAction {
	for _, p := range pending {
		if p.IdempotencyKey == key && p.State != core.StateSubmitted {
			return p
		}
	}
	return nil
}

// Confirm executes a pending action. Payment requests are published to the
// payers; transfers and stakes are signed and submitted.
func (e *Engine) Confirm(ctx context.Context, sessionID, actionID string) (*Output, error) {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	p, ok := s.pending[actionID]
	switch {
	case !ok:
		s.mu.Unlock()
		return nil, errors.Wrapf(core.ErrNotFound, "action %s", actionID)
	case p.State == core.StateSubmitted:
		s.mu.Unlock()
		return nil, errors.Wrapf(ErrActionInFlight, "action %s", actionID)
	case p.Expired(e.now()):
		delete(s.pending, actionID)
		s.append(core.AssistantTurn(msgActionExpired))
		s.mu.Unlock()
		return &Output{Type: OutputError, Text: msgActionExpired, Error: errors.Wrap(core.ErrValidation, "confirmation window expired")}, nil
	}

	req, wallet, signer := p.Request, s.wallet, s.signer
	_, isPaymentRequest := req.(*core.PaymentRequest)
	if wallet == "" || (!isPaymentRequest && signer == nil) {
		text := noWalletMessage(req.Kind())
		s.append(core.AssistantTurn(text))
		s.mu.Unlock()
		return &Output{Type: OutputError, Text: text, Error: core.ErrNoSigner}, nil
	}
	// Submitted while in flight so a second confirm is refused.
	p.State = core.StateSubmitted
	s.mu.Unlock()

	started := e.now()
	var out *Output
	if pr, ok := req.(*core.PaymentRequest); ok {
		out = e.publishRequest(ctx, wallet, pr)
	} else {
		out = chainOutput(req.Kind(), e.executor.WithSigner(signer).Execute(ctx, req))
	}

	// Once execution returns the action leaves the pending set unless it
	// failed outright; a submitted transaction is tracked by its hash.
	s.mu.Lock()
	p.State = out.State
	if out.State != core.StateFailed {
		delete(s.pending, actionID)
	}
	trace := e.newTrace(s, actionID, req, out)
	s.addTrace(trace)
	s.append(core.AssistantTurn(out.Text))
	s.mu.Unlock()

	e.record(ctx, wallet, actionID, trace, out, started)
	return out, nil
}

// Cancel discards a pending action.
func (e *Engine) Cancel(ctx context.Context, sessionID, actionID string) (*Output, error) {
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	p, ok := s.pending[actionID]
	if !ok {
		s.mu.Unlock()
		return nil, errors.Wrapf(core.ErrNotFound, "action %s", actionID)
	}
	if p.State == core.StateSubmitted {
		s.mu.Unlock()
		return nil, errors.Wrapf(ErrActionInFlight, "action %s", actionID)
	}
	delete(s.pending, actionID)

	out := &Output{Type: OutputComplete, Text: cancelledMessage(p.Request.Kind())}
	trace := e.newTrace(s, actionID, p.Request, out)
	trace.Observation = "Cancelled by user"
	trace.Metadata["status"] = "cancelled"
	s.addTrace(trace)
	s.append(core.AssistantTurn(out.Text))
	wallet := s.wallet
	s.mu.Unlock()

	e.record(ctx, wallet, actionID, trace, out, e.now())
	return out, nil
}

// PayRequest pays a payment request addressed to the session's wallet and
// settles the notification once the transfer succeeds.
func (e *Engine) PayRequest(ctx context.Context, sessionID, notificationID string) (*Output, error) {
	s, rec, err := e.requestFor(ctx, sessionID, notificationID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	wallet, signer := s.wallet, s.signer
	s.mu.Unlock()
	if signer == nil {
		return &Output{Type: OutputError, Text: noWalletMessage(core.ActionTransfer), Error: core.ErrNoSigner}, nil
	}

	req, _, err := e.validator.Build(core.ActionTransfer, intent.Fields{
		Destination: rec.From,
		Amount:      rec.Amount,
		Token:       string(rec.TokenSymbol),
	})
	if err != nil {
		e.logger.Warn("unpayable payment request", zap.String("id", rec.ID), zap.Error(err))
		s.mu.Lock()
		s.append(core.AssistantTurn(msgRequestUnpayable))
		s.mu.Unlock()
		return &Output{Type: OutputError, Text: msgRequestUnpayable, Error: err}, nil
	}

	started := e.now()
	out := chainOutput(core.ActionTransfer, e.executor.WithSigner(signer).Execute(ctx, req))
	if out.Result.Success {
		if _, err := e.relay.Settle(ctx, rec.ID); err != nil {
			e.logger.Warn("settle payment request failed", zap.String("id", rec.ID), zap.Error(err))
			out.Warning = "Payment sent, but the request could not be cleared: " + err.Error()
		}
		out.Notifications = []string{rec.ID}
	}

	s.mu.Lock()
	trace := e.newTrace(s, rec.ID, req, out)
	trace.Metadata["notification_id"] = rec.ID
	s.addTrace(trace)
	s.append(core.AssistantTurn(out.Text))
	s.mu.Unlock()

	e.record(ctx, wallet, rec.ID, trace, out, started)
	return out, nil
}

// DismissRequest removes a payment request addressed to the session's
// wallet without paying it.
func (e *Engine) DismissRequest(ctx context.Context, sessionID, notificationID string) (*Output, error) {
	s, rec, err := e.requestFor(ctx, sessionID, notificationID)
	if err != nil {
		return nil, err
	}
	out := &Output{Type: OutputComplete, Text: msgRequestDismissed, Notifications: []string{rec.ID}}
	if _, err := e.relay.Dismiss(ctx, rec.ID); err != nil {
		e.logger.Warn("dismiss payment request failed", zap.String("id", rec.ID), zap.Error(err))
		out = &Output{Type: OutputError, Text: msgDismissFailed, Error: err}
	}
	s.mu.Lock()
	s.append(core.AssistantTurn(out.Text))
	s.mu.Unlock()
	return out, nil
}

func (e *Engine) requestFor(ctx context.Context, sessionID, notificationID string) (*Session, *core.NotificationRecord, error) {
	if e.relay == nil {
		return nil, nil, errors.Wrap(core.ErrStoreFailure, "notifications are not configured")
	}
	s, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	wallet := s.Wallet()
	if wallet == "" {
		return nil, nil, errors.Wrap(core.ErrNoSigner, "connect the wallet the request was sent to")
	}
	rec, err := e.relay.Get(ctx, notificationID)
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(rec.To, wallet) {
		return nil, nil, errors.Wrapf(core.ErrValidation, "payment request %s is addressed to another wallet", rec.ID)
	}
	return s, rec, nil
}

// publishRequest runs a payment request through the executor and notifies
// every payer. Store failures are reported as a warning.
func (e *Engine) publishRequest(ctx context.Context, wallet string, pr *core.PaymentRequest) *Output {
	exec := e.executor.Execute(ctx, pr)
	res := exec.Result()
	out := &Output{Type: OutputResult, State: exec.State(), Result: &res}
	if !res.Success {
		out.Text = "Sorry, there was an error creating the payment request. Please try again."
		out.Error = errors.Wrap(core.ErrExecutionFailure, res.Error)
		return out
	}
	out.Text = "Payment request sent successfully!"

	var fromName string
	if c, ok := e.directory.FindByAddress(wallet); ok {
		fromName = c.Name
	}
	records := make([]core.NotificationRecord, 0, len(pr.FromAddresses))
	for _, addr := range pr.FromAddresses {
		records = append(records, core.NotificationRecord{
			From:        wallet,
			FromName:    fromName,
			To:          addr,
			Amount:      amountFor(pr.Amounts, addr),
			TokenSymbol: pr.Token,
			Description: pr.Description,
		})
	}

	if e.relay == nil {
		out.Warning = "Notifications are not configured, so payers were not notified."
		return out
	}
	ids, err := e.relay.Publish(ctx, records...)
	if err != nil {
		e.logger.Warn("publish payment request failed", zap.String("wallet", wallet), zap.Error(err))
		out.Warning = "The request was created, but payers could not be notified: " + err.Error()
		return out
	}
	out.Notifications = ids
	return out
}

func amountFor(amounts map[string]string, addr string) string {
	if v, ok := amounts[addr]; ok {
		return v
	}
	for k, v := range amounts {
		if strings.EqualFold(k, addr) {
			return v
		}
	}
	return ""
}

func chainOutput(kind core.ActionKind, exec *executor.Execution) *Output {
	res := exec.Result()
	state := exec.State()
	out := &Output{
		Type:   OutputResult,
		State:  state,
		Result: &res,
		Text:   resultMessage(kind, state, res),
	}
	if state == core.StateFailed {
		cause := core.ErrExecutionFailure
		if res.UserRejected {
			cause = core.ErrUserRejected
		}
		out.Error = errors.Wrap(cause, res.Error)
	}
	return out
}

// newTrace records an executed or cancelled action. Callers hold s.mu.
func (e *Engine) newTrace(s *Session, actionID string, req core.ActionRequest, out *Output) *core.Trace {
	input, _ := json.Marshal(req)
	trace := &core.Trace{
		ID:          uuid.New().String(),
		SessionID:   s.ID,
		Action:      toolFor(req.Kind()),
		ActionInput: input,
		Observation: out.Text,
		Timestamp:   e.now().Unix(),
		Metadata: map[string]string{
			"confirmed":       "true",
			"confirmation_id": actionID,
		},
	}
	if out.State != "" {
		trace.Metadata["status"] = string(out.State)
	}
	if out.Result == nil {
		return trace
	}

	trace.Success = out.Result.Success
	if out.Result.TransactionHash != "" {
		trace.Metadata["tx_hash"] = out.Result.TransactionHash
	}
	if !trace.Success {
		trace.Metadata["error"] = out.Result.Error
		errorType := categorizeError(out.Result.ErrorKind, out.Result.Error)
		trace.Metadata["error_type"] = errorType
		trace.Metadata["prevention"] = generatePrevention(trace.Action, errorType)
	}
	return trace
}

// record sends a finished trace to the audit log and to memory.
func (e *Engine) record(ctx context.Context, wallet, actionID string, trace *core.Trace, out *Output, started time.Time) {
	e.logger.Info("action finished",
		zap.String("action", actionID),
		zap.String("tool", trace.Action),
		zap.String("status", trace.Metadata["status"]),
		zap.Bool("success", trace.Success))

	if e.audit != nil {
		entry := &AuditEntry{
			ID:         trace.ID,
			Wallet:     wallet,
			SessionID:  trace.SessionID,
			ActionID:   actionID,
			Tool:       trace.Action,
			Input:      trace.ActionInput,
			State:      trace.Metadata["status"],
			DurationMs: e.now().Sub(started).Milliseconds(),
			Timestamp:  started.Unix(),
		}
		if out.Result != nil {
			entry.TransactionHash = out.Result.TransactionHash
			if out.Result.Error != "" {
				entry.Error = &out.Result.Error
			}
		}
		e.audit.Log(ctx, entry)
	}

	if e.memory != nil && wallet != "" {
		if err := e.memory.RecordTraces(ctx, wallet, []*core.Trace{trace}); err != nil {
			e.logger.Warn("record traces failed", zap.Error(err))
		}
	}
}

func (e *Engine) signerFor(wallet string) core.Signer {
	if e.signers == nil || wallet == "" {
		return nil
	}
	return e.signers(wallet)
}

func (e *Engine) rate(ctx context.Context) resolver.Rate {
	rate, err := e.converter.Snapshot(ctx)
	if err != nil {
		e.logger.Warn("conversion rate unavailable, using 1:1", zap.Error(err))
		rate, _ = resolver.NewFixedConverter(core.TokenCUSD).Snapshot(ctx)
	}
	return rate
}

// prompt builds the system prompt for one turn: the base prompt, the
// connected wallet and any relevant past actions.
func (e *Engine) prompt(ctx context.Context, wallet, message string) string {
	prompt := e.systemPrompt
	if wallet == "" {
		return prompt
	}
	prompt += fmt.Sprintf("\n\nThe user's connected wallet is %s.", wallet)

	if e.memory == nil {
		return prompt
	}
	enrichment, err := e.memory.Retrieve(ctx, wallet, message)
	if err != nil {
		e.logger.Warn("memory retrieval failed", zap.Error(err))
		return prompt
	}
	if enrichment != "" {
		prompt += "\n\n" + enrichment
	}
	return prompt
}

func toolFor(kind core.ActionKind) string {
	switch kind {
	case core.ActionRequestPayment:
		return tools.RequestPayment
	case core.ActionStake:
		return tools.StakeCelo
	default:
		return tools.TransferFunds
	}
}

func validationMessage(v intent.Validation) string {
	var parts []string
	if len(v.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("Missing required information: %s. Please provide these details.", strings.Join(v.Missing, ", ")))
	}
	for _, msg := range v.Errors {
		parts = append(parts, capitalize(msg)+".")
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
