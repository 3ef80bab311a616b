package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/repository"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/goroutine"
	"github.com/Derecoder4/Freelance-Fi/internal/logger"
	"github.com/Derecoder4/Freelance-Fi/internal/metrics"
	"github.com/Derecoder4/Freelance-Fi/internal/models"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

const (
	defaultListLimit    = 20
	maxListLimit        = 100
	defaultWriteTimeout = 15 * time.Second
)

// События ленты изменений.
const (
	EventGigCreated  = "gig.created"
	EventGigAccepted = "gig.accepted"
	EventGigReleased = "gig.released"
	EventGigRefunded = "gig.refunded"
	EventGigDisputed = "gig.disputed"
	EventGigResolved = "gig.resolved"
)

// Notifier доставляет событие подключённым клиентам адреса.
type Notifier interface {
	BroadcastToAddress(addr valueobject.Address, event string, data any) error
}

type GigServiceConfig struct {
	Arbiter      valueobject.Address
	WriteTimeout time.Duration
	AllowDeposit bool
}

// GigService - движок жизненного цикла сделок: проверяет актора и статус,
// вычисляет переводы и отдаёт их хранилищу на атомарную запись.
type GigService struct {
	gigs         repository.GigRepository
	ledger       repository.LedgerRepository
	arbiter      valueobject.Address
	writeTimeout time.Duration
	allowDeposit bool
	metrics      *metrics.Metrics
	notifier     Notifier
}

func NewGigService(gigs repository.GigRepository, ledger repository.LedgerRepository, cfg GigServiceConfig, m *metrics.Metrics, notifier Notifier) *GigService {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &GigService{
		gigs:         gigs,
		ledger:       ledger,
		arbiter:      cfg.Arbiter,
		writeTimeout: timeout,
		allowDeposit: cfg.AllowDeposit,
		metrics:      m,
		notifier:     notifier,
	}
}

type CreateGigInput struct {
	Freelancer  string
	Description string
	Amount      int64
}

type ListGigsInput struct {
	Status string
	Role   string
	Search string
	Limit  int
	Offset int
}

// CreateGig блокирует сумму на escrow клиента и возвращает созданную сделку
// с присвоенным номером.
func (s *GigService) CreateGig(ctx context.Context, actor valueobject.Address, input CreateGigInput) (*entity.Gig, error) {
	started := time.Now()

	gig, hold, err := s.newGig(actor, input)
	if err == nil {
		err = s.write(ctx, func(wctx context.Context) error {
			return s.gigs.Create(wctx, gig, hold)
		})
	}

	s.finish(entity.CommandCreate, actor, gig, []entity.Transfer{hold}, started, err)
	if err != nil {
		return nil, err
	}

	s.publish(EventGigCreated, gig)
	return gig, nil
}

func (s *GigService) newGig(actor valueobject.Address, input CreateGigInput) (*entity.Gig, entity.Transfer, error) {
	freelancer, err := valueobject.ParseAddress(input.Freelancer)
	if err != nil {
		return nil, entity.Transfer{}, err
	}
	return entity.NewGig(actor, freelancer, input.Description, input.Amount)
}

// AcceptGig - фрилансер берёт сделку в работу.
func (s *GigService) AcceptGig(ctx context.Context, actor valueobject.Address, id int64) (*entity.Gig, error) {
	return s.command(ctx, entity.CommandAccept, EventGigAccepted, actor, id, func(g *entity.Gig) ([]entity.Transfer, error) {
		return nil, g.Accept(actor)
	})
}

// ReleaseFunds - клиент выплачивает всю сумму фрилансеру.
func (s *GigService) ReleaseFunds(ctx context.Context, actor valueobject.Address, id int64) (*entity.Gig, error) {
	return s.command(ctx, entity.CommandRelease, EventGigReleased, actor, id, func(g *entity.Gig) ([]entity.Transfer, error) {
		return g.Release(actor)
	})
}

// Refund - клиент забирает средства до принятия сделки.
func (s *GigService) Refund(ctx context.Context, actor valueobject.Address, id int64) (*entity.Gig, error) {
	return s.command(ctx, entity.CommandRefund, EventGigRefunded, actor, id, func(g *entity.Gig) ([]entity.Transfer, error) {
		return g.Refund(actor)
	})
}

// DisputeGig - любой участник замораживает средства до решения арбитра.
func (s *GigService) DisputeGig(ctx context.Context, actor valueobject.Address, id int64) (*entity.Gig, error) {
	return s.command(ctx, entity.CommandDispute, EventGigDisputed, actor, id, func(g *entity.Gig) ([]entity.Transfer, error) {
		return nil, g.Dispute(actor)
	})
}

// ResolveDispute - арбитр назначает победителя спора.
// Некорректный адрес победителя проверяется последним, после актора и статуса.
func (s *GigService) ResolveDispute(ctx context.Context, actor valueobject.Address, id int64, winner string) (*entity.Gig, error) {
	parsed, parseErr := valueobject.ParseAddress(winner)
	return s.command(ctx, entity.CommandResolve, EventGigResolved, actor, id, func(g *entity.Gig) ([]entity.Transfer, error) {
		transfers, err := g.Resolve(actor, s.arbiter, parsed)
		if err != nil && parseErr != nil && apperror.IsInvalidInput(err) {
			return nil, parseErr
		}
		return transfers, err
	})
}

func (s *GigService) command(ctx context.Context, cmd entity.Command, event string, actor valueobject.Address, id int64, mutate repository.Mutation) (*entity.Gig, error) {
	started := time.Now()

	var (
		gig       *entity.Gig
		transfers []entity.Transfer
	)
	err := s.write(ctx, func(wctx context.Context) error {
		updated, err := s.gigs.Update(wctx, id, func(g *entity.Gig) ([]entity.Transfer, error) {
			out, err := mutate(g)
			transfers = out
			return out, err
		})
		gig = updated
		return err
	})

	if gig == nil {
		gig = &entity.Gig{ID: id}
	}
	s.finish(cmd, actor, gig, transfers, started, err)
	if err != nil {
		return nil, err
	}

	s.publish(event, gig)
	return gig, nil
}

// write отвязывает запись от отмены запроса: отправленную команду уже нельзя
// отозвать, её ограничивает только writeTimeout.
func (s *GigService) write(ctx context.Context, fn func(context.Context) error) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	err := fn(wctx)
	if err == nil || apperror.IsLogical(err) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeTransientWrite, apperror.ErrTransientWrite.Message)
}

func (s *GigService) finish(cmd entity.Command, actor valueobject.Address, gig *entity.Gig, transfers []entity.Transfer, started time.Time, err error) {
	s.metrics.ObserveCommand(string(cmd), started, err)
	if err == nil {
		for _, t := range transfers {
			s.metrics.AddTransferred(string(t.Kind), t.Amount.Int64())
		}
	}

	if logger.Log == nil {
		return
	}

	fields := logrus.Fields{
		"command": string(cmd),
		"actor":   actor.String(),
	}
	if gig != nil {
		fields["gig_id"] = gig.ID
		if err == nil {
			fields["status"] = string(gig.Status())
		}
	}
	entry := logger.Log.WithFields(fields)

	switch {
	case err == nil:
		entry.Info("gig command applied")
	case apperror.IsTransient(err):
		entry.WithError(err).Error("gig command outcome unknown")
	default:
		entry.WithField("code", string(apperror.CodeOf(err))).Warn("gig command rejected")
	}
}

// publish оповещает участников и арбитра асинхронно, запись к этому моменту уже зафиксирована.
func (s *GigService) publish(event string, gig *entity.Gig) {
	if s.notifier == nil {
		return
	}

	record := models.NewGigRecord(gig)
	recipients := []valueobject.Address{gig.Client, gig.Freelancer}
	if !s.arbiter.IsZero() && !gig.IsParticipant(s.arbiter) {
		recipients = append(recipients, s.arbiter)
	}

	goroutine.SafeGo(func() {
		for _, addr := range recipients {
			if err := s.notifier.BroadcastToAddress(addr, event, record); err != nil && logger.Log != nil {
				logger.Log.WithError(err).WithField("gig_id", gig.ID).Warn("gig event not delivered")
			}
		}
	})
}

// GetGig возвращает сделку с вычисленным статусом.
func (s *GigService) GetGig(ctx context.Context, id int64) (*entity.Gig, error) {
	gig, err := s.gigs.FindByID(ctx, id)
	if err != nil {
		return nil, readError(err)
	}
	return gig, nil
}

// ListGigIDs возвращает все номера сделок по возрастанию.
func (s *GigService) ListGigIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.gigs.ListIDs(ctx)
	if err != nil {
		return nil, readError(err)
	}
	return ids, nil
}

// ListGigs - выборка для дашборда. Роль без адреса зрителя игнорируется,
// пустая роль означает все сделки.
func (s *GigService) ListGigs(ctx context.Context, viewer valueobject.Address, input ListGigsInput) ([]*entity.Gig, int, error) {
	filter := repository.GigFilter{
		Search: strings.TrimSpace(input.Search),
		Offset: max(input.Offset, 0),
		Limit:  normalizeLimit(input.Limit),
	}

	if input.Status != "" {
		status, err := valueobject.NewGigStatus(input.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = status
	}

	if input.Role != "" && !viewer.IsZero() {
		role := repository.Participant(strings.ToLower(input.Role))
		switch role {
		case repository.ParticipantAny, repository.ParticipantClient, repository.ParticipantFreelancer:
		default:
			return nil, 0, apperror.New(apperror.ErrCodeInvalidInput, "роль должна быть any, client или freelancer")
		}
		filter.Role = role
		filter.Address = viewer
	}

	gigs, total, err := s.gigs.List(ctx, filter)
	if err != nil {
		return nil, 0, readError(err)
	}
	return gigs, total, nil
}

func (s *GigService) GetBalance(ctx context.Context, addr valueobject.Address) (*entity.Balance, error) {
	balance, err := s.ledger.GetBalance(ctx, addr)
	if err != nil {
		return nil, readError(err)
	}
	return balance, nil
}

// Deposit пополняет доступный баланс. Вне development это внешнее пополнение
// и через API недоступно.
func (s *GigService) Deposit(ctx context.Context, actor valueobject.Address, amount int64) (*entity.Transfer, error) {
	if !s.allowDeposit {
		return nil, apperror.ErrDisabledInProduction
	}

	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}

	var transfer *entity.Transfer
	err = s.write(ctx, func(wctx context.Context) error {
		t, err := s.ledger.Deposit(wctx, actor, value)
		transfer = t
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddTransferred(string(entity.TransferKindDeposit), value.Int64())
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{"actor": actor.String(), "amount": value.Int64()}).Info("deposit applied")
	}
	return transfer, nil
}

// ListTransfers возвращает журнал переводов сделки.
func (s *GigService) ListTransfers(ctx context.Context, gigID int64) ([]entity.Transfer, error) {
	if _, err := s.gigs.FindByID(ctx, gigID); err != nil {
		return nil, readError(err)
	}
	transfers, err := s.ledger.ListTransfersByGig(ctx, gigID)
	if err != nil {
		return nil, readError(err)
	}
	return transfers, nil
}

func (s *GigService) ListAccountTransfers(ctx context.Context, addr valueobject.Address, limit, offset int) ([]entity.Transfer, error) {
	transfers, err := s.ledger.ListTransfersByAddress(ctx, addr, normalizeLimit(limit), max(offset, 0))
	if err != nil {
		return nil, readError(err)
	}
	return transfers, nil
}

// Arbiter возвращает адрес, получающий комиссию за разрешение споров.
func (s *GigService) Arbiter() valueobject.Address {
	return s.arbiter
}

// readError оставляет ошибки приложения как есть, остальное считает сбоем чтения.
func readError(err error) error {
	if apperror.CodeOf(err) != apperror.ErrCodeInternal {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "ошибка чтения из хранилища")
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
