package signer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"signer-core/internal/wallet"
	"signer-core/pkg/errno"
	"signer-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultAutoCloseDelay 签名成功后自动关闭面板的延迟
const DefaultAutoCloseDelay = 3000 * time.Millisecond

var errNothingToSend = errors.New("transaction bag has nothing to send")

// WalletView 读取当前钱包快照
type WalletView interface {
	Current() wallet.Snapshot
}

// Signer 钱包签名能力
type Signer interface {
	SendTransaction(ctx context.Context, tx TransactionPayload) (string, error)
	PersonalSign(ctx context.Context, message string, account common.Address) (string, error)
}

type PanelOpt func(*Panel)

func WithClock(c clockwork.Clock) PanelOpt {
	return func(p *Panel) {
		p.clock = c
	}
}

func WithAutoCloseDelay(d time.Duration) PanelOpt {
	return func(p *Panel) {
		p.autoCloseDelay = d
	}
}

// WithExpectedNetwork 应用期望的网络，为空时不检查
func WithExpectedNetwork(network string) PanelOpt {
	return func(p *Panel) {
		p.expectedNetwork = network
	}
}

// WithOnTransactionSuccess 交易发送成功后回调 (在 Accept 之前)
func WithOnTransactionSuccess(fn func(TransactionPayload)) PanelOpt {
	return func(p *Panel) {
		p.onTransactionSuccess = fn
	}
}

// WithOnMsgSignSuccess 消息签名成功后回调 (在 Resolve 之前)
func WithOnMsgSignSuccess(fn func(*SignatureBag)) PanelOpt {
	return func(p *Panel) {
		p.onMsgSignSuccess = fn
	}
}

func WithOnClose(fn func()) PanelOpt {
	return func(p *Panel) {
		p.onClose = fn
	}
}

func WithLogger(l *zap.Logger) PanelOpt {
	return func(p *Panel) {
		p.log = l
	}
}

// PanelState 面板状态的只读视图
type PanelState struct {
	Opened         bool                `json:"opened"`
	Status         Status              `json:"status"`
	Kind           string              `json:"kind,omitempty"`
	Intent         Intent              `json:"intent"`
	Direct         bool                `json:"direct"`
	ActionPaths    [][]PathNode        `json:"actionPaths"`
	Pretransaction *TransactionPayload `json:"pretransaction,omitempty"`
	SignError      string              `json:"signError,omitempty"`
	Screen         Screen              `json:"screen"`
}

// Panel 签名面板状态机。
// 新请求总是替换当前请求 (旧请求不结算)；进行中的签名结果只结算发起它的请求，
// 只有该请求仍是当前请求时才更新面板状态。
type Panel struct {
	wallet   WalletView
	signer   Signer
	registry AppLookup

	clock                clockwork.Clock
	autoCloseDelay       time.Duration
	expectedNetwork      string
	onTransactionSuccess func(TransactionPayload)
	onMsgSignSuccess     func(*SignatureBag)
	onClose              func()
	log                  *zap.Logger

	mu         sync.Mutex
	gen        uint64
	bag        Bag
	opened     bool
	status     Status
	tx         txState
	signErr    error
	closeTimer clockwork.Timer
}

// NewPanel signer 为 nil 表示没有可用的钱包提供方
func NewPanel(wv WalletView, signer Signer, registry AppLookup, opts ...PanelOpt) *Panel {
	p := &Panel{
		wallet:         wv,
		signer:         signer,
		registry:       registry,
		clock:          clockwork.NewRealClock(),
		autoCloseDelay: DefaultAutoCloseDelay,
		log:            zap.NewNop(),
		status:         StatusConfirming,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Receive 接收新的签名请求并打开面板，当前请求被直接丢弃
func (p *Panel) Receive(bag Bag) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		status  Status
		tx      txState
		signErr error
	)
	switch b := bag.(type) {
	case *TransactionBag:
		status = StatusConfirming
		tx = stateFromTransactionBag(b, p.registry)
		signErr = b.PathErr
	case *SignatureBag:
		status = StatusConfirmingMsgSign
		tx = txState{intent: messageIntent(b)}
	default:
		return fmt.Errorf("unsupported sign request %T", bag)
	}

	if p.bag != nil {
		p.log.Info("sign request replaced by a newer one", zap.Stringer("kind", p.bag.Kind()))
	}
	p.resetLocked()
	p.bag = bag
	p.opened = true
	p.status = status
	p.tx = tx
	p.signErr = signErr

	monitor.SignRequestsTotal.WithLabelValues(bag.Kind().String()).Inc()
	p.log.Info("sign request received",
		zap.Stringer("kind", bag.Kind()),
		zap.String("intent", tx.intent.Name),
		zap.Bool("direct", tx.direct),
	)
	return nil
}

// Screen 当前应展示的界面
func (p *Panel) Screen() Screen {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screenLocked()
}

func (p *Panel) screenLocked() Screen {
	snap := p.wallet.Current()
	return selectScreen(screenInput{
		hasBag:          p.bag != nil,
		hasWeb3:         p.signer != nil,
		hasAccount:      snap.IsConnected,
		walletNetwork:   snap.NetworkType,
		expectedNetwork: p.expectedNetwork,
		status:          p.status,
		direct:          p.tx.direct,
		paths:           len(p.tx.actionPaths),
		signError:       p.signErr,
		intent:          p.tx.intent,
	})
}

// Sign 用户确认签名。只在确认页可用，阻塞直到钱包返回结果。
func (p *Panel) Sign(ctx context.Context) error {
	p.mu.Lock()
	if p.bag == nil {
		p.mu.Unlock()
		return errno.ErrNoActiveRequest
	}
	if !ConfirmingSignature(p.status) {
		p.mu.Unlock()
		return errno.ErrSigningDisabled
	}
	if err := screenError(p.screenLocked()); err != nil {
		p.mu.Unlock()
		return err
	}

	account := p.wallet.Current().Account
	if account == nil {
		p.mu.Unlock()
		return errno.ErrAccountLocked
	}
	gen := p.gen
	bag := p.bag
	tx := p.tx
	switch bag.(type) {
	case *TransactionBag:
		p.setStatusLocked(StatusSigning)
	case *SignatureBag:
		p.setStatusLocked(StatusSigningMessage)
	}
	p.mu.Unlock()

	start := p.clock.Now()
	var err error
	switch b := bag.(type) {
	case *TransactionBag:
		err = p.signTransaction(ctx, gen, b, tx)
	case *SignatureBag:
		err = p.signMessage(ctx, gen, b, *account)
	}
	monitor.SignDuration.WithLabelValues(bag.Kind().String()).Observe(p.clock.Since(start).Seconds())
	return err
}

func (p *Panel) signTransaction(ctx context.Context, gen uint64, bag *TransactionBag, st txState) error {
	result, err := p.sendTransactions(ctx, bag, st)
	if err != nil {
		p.log.Warn("transaction signing failed", zap.Error(err))
		monitor.SignResultsTotal.WithLabelValues(KindTransaction.String(), "error").Inc()
		bag.reject(err)
		p.finish(gen, StatusError, err)
		return fmt.Errorf("%w: %v", errno.ErrSignFailed, err)
	}

	if p.onTransactionSuccess != nil {
		p.onTransactionSuccess(*transactionToSend(bag.Path, bag.Transaction))
	}
	monitor.SignResultsTotal.WithLabelValues(KindTransaction.String(), "success").Inc()
	p.log.Info("transaction signed", zap.String("result", result))
	bag.accept(result)
	p.finish(gen, StatusSigned, nil)
	return nil
}

// sendTransactions 先发送前置交易 (如授权)，再发送主交易
func (p *Panel) sendTransactions(ctx context.Context, bag *TransactionBag, st txState) (string, error) {
	mainTx := transactionToSend(bag.Path, bag.Transaction)
	if mainTx == nil {
		return "", errNothingToSend
	}

	if st.pretransaction != nil {
		hash, err := p.signer.SendTransaction(ctx, *st.pretransaction)
		if err != nil {
			return "", fmt.Errorf("pretransaction: %w", err)
		}
		p.log.Debug("pretransaction sent", zap.String("hash", hash))
	}
	return p.signer.SendTransaction(ctx, *mainTx)
}

func (p *Panel) signMessage(ctx context.Context, gen uint64, bag *SignatureBag, account common.Address) error {
	signature, err := p.signer.PersonalSign(ctx, bag.Message, account)
	if err != nil {
		p.log.Warn("message signing failed", zap.Error(err))
		monitor.SignResultsTotal.WithLabelValues(KindSignature.String(), "error").Inc()
		bag.reject(err)
		p.finish(gen, StatusErrorSigningMsg, err)
		return fmt.Errorf("%w: %v", errno.ErrSignFailed, err)
	}

	if p.onMsgSignSuccess != nil {
		p.onMsgSignSuccess(bag)
	}
	monitor.SignResultsTotal.WithLabelValues(KindSignature.String(), "success").Inc()
	bag.resolve(signature)
	p.finish(gen, StatusMessageSigned, nil)
	return nil
}

// finish 只在 gen 仍是当前请求时更新状态；成功时启动自动关闭
func (p *Panel) finish(gen uint64, status Status, signErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		p.log.Debug("sign result arrived for a replaced request", zap.Stringer("status", status))
		return
	}
	p.signErr = signErr
	p.setStatusLocked(status)
	if SignatureSuccess(status) {
		p.startClosingLocked(gen)
	}
}

func (p *Panel) setStatusLocked(s Status) {
	if !SignatureSuccess(s) {
		p.stopTimerLocked()
	}
	p.status = s
}

func (p *Panel) startClosingLocked(gen uint64) {
	p.stopTimerLocked()
	p.closeTimer = p.clock.AfterFunc(p.autoCloseDelay, func() {
		p.mu.Lock()
		if gen != p.gen || !SignatureSuccess(p.status) || !p.opened {
			p.mu.Unlock()
			return
		}
		p.closeTimer = nil
		p.opened = false
		p.mu.Unlock()

		p.log.Debug("signer panel auto-closed")
		if p.onClose != nil {
			p.onClose()
		}
	})
}

func (p *Panel) stopTimerLocked() {
	if p.closeTimer != nil {
		p.closeTimer.Stop()
		p.closeTimer = nil
	}
}

// Close 关闭面板，状态在 TransitionEnd 时才重置
func (p *Panel) Close() {
	p.mu.Lock()
	p.stopTimerLocked()
	p.opened = false
	p.mu.Unlock()

	if p.onClose != nil {
		p.onClose()
	}
}

// TransitionEnd 面板动画结束，关闭状态下重置为初始状态
func (p *Panel) TransitionEnd(opened bool) {
	if opened {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.bag = nil
}

// resetLocked 回到初始状态，并使进行中的签名结果失效
func (p *Panel) resetLocked() {
	p.gen++
	p.stopTimerLocked()
	p.opened = false
	p.status = StatusConfirming
	p.tx = txState{}
	p.signErr = nil
}

// Enable 请求钱包授权账户
func (p *Panel) Enable(ctx context.Context) error {
	if p.signer == nil {
		return errno.ErrNoWeb3
	}
	if e, ok := p.signer.(wallet.Enabler); ok {
		return e.Enable(ctx)
	}
	return nil
}

// State 当前状态视图
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := PanelState{
		Opened:         p.opened,
		Status:         p.status,
		Intent:         p.tx.intent,
		Direct:         p.tx.direct,
		ActionPaths:    p.tx.actionPaths,
		Pretransaction: p.tx.pretransaction,
		Screen:         p.screenLocked(),
	}
	if p.bag != nil {
		st.Kind = p.bag.Kind().String()
	}
	if p.signErr != nil {
		st.SignError = p.signErr.Error()
	}
	return st
}
