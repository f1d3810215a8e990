package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"pizzaria_backend/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ChannelAllOrders = "pedidos:all"
	channelPrefix    = "pedidos:"
)

// ChannelForOrder é o canal redis de um pedido específico.
func ChannelForOrder(publicCode string) string {
	return channelPrefix + publicCode
}

// OrderStore é a única fonte de verdade dos pedidos. Toda escrita confirmada
// publica o snapshot completo nos canais redis; a concorrência é otimista,
// resolvida pela checagem de versão no momento do UPDATE.
type OrderStore struct {
	db  *gorm.DB
	rdb *redis.Client
	bus SnapshotBus
	log *zap.SugaredLogger
}

func NewOrderStore(db *gorm.DB, rdb *redis.Client, bus SnapshotBus, log *zap.SugaredLogger) *OrderStore {
	return &OrderStore{db: db, rdb: rdb, bus: bus, log: log}
}

// Snapshot é a mensagem publicada aos assinantes: sempre o estado completo,
// nunca um diff, para que assinante atrasado converja sem replay.
type Snapshot struct {
	Type    string       `json:"type"`
	Version uint         `json:"version"`
	Order   *model.Order `json:"order"`
}

// Create persiste o rascunho vindo do checkout: gera código público, número
// sequencial do dia e versão inicial.
func (s *OrderStore) Create(ctx context.Context, o *model.Order) error {
	o.PublicCode = "PED-" + strings.ToUpper(uuid.New().String()[:8])
	o.Version = 1

	seq, err := s.nextOrderNumber(ctx)
	if err != nil {
		s.log.Warnw("falha ao gerar número do pedido, usando fallback", "err", err)
		seq = time.Now().Unix() % 100000
	}
	o.OrderNumber = seq

	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return err
	}

	s.publish(ctx, o)
	return nil
}

// nextOrderNumber: sequência diária via INCR (pedidos:seq:AAAAMMDD).
func (s *OrderStore) nextOrderNumber(ctx context.Context) (int64, error) {
	key := "pedidos:seq:" + time.Now().Format("20060102")
	seq, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if seq == 1 {
		s.rdb.Expire(ctx, key, 48*time.Hour)
	}
	return seq, nil
}

func (s *OrderStore) GetByCode(ctx context.Context, publicCode string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Session", "active = ?", true).
		Where("public_code = ?", publicCode).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) GetByChargeID(ctx context.Context, chargeID string) (*model.Order, error) {
	var session model.PaymentSession
	if err := s.db.WithContext(ctx).
		Where("provider_charge_id = ?", chargeID).
		Order("created_at desc").
		First(&session).Error; err != nil {
		return nil, err
	}

	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Session", "active = ?", true).
		First(&order, session.OrderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListActive exclui a lixeira (status=deleted) das visões do admin.
func (s *OrderStore) ListActive(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Session", "active = ?", true).
		Where("status <> ?", model.StatusDeleted).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (s *OrderStore) ListTrash(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", model.StatusDeleted).
		Order("updated_at desc").
		Find(&orders).Error
	return orders, err
}

// Update grava os campos mutáveis do pedido com checagem otimista de versão.
// Zero linhas afetadas significa que outra escrita venceu a corrida:
// ConflictError, e o chamador rebusca o snapshot autoritativo.
func (s *OrderStore) Update(ctx context.Context, o *model.Order) error {
	res := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]any{
			"status":               o.Status,
			"payment_status":       o.PaymentStatus,
			"pickup_time_estimate": o.PickupTimeEstimate,
			"reservation_date":     o.ReservationDate,
			"reservation_time":     o.ReservationTime,
			"notes":                o.Notes,
			"integrity_hold":       o.IntegrityHold,
			"paid_at":              o.PaidAt,
			"deleted_on":           o.DeletedOn,
			"version":              o.Version + 1,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &model.ConflictError{PublicCode: o.PublicCode, Version: o.Version}
	}

	o.Version++
	s.publish(ctx, o)
	return nil
}

// AttachSession troca a sessão PIX ativa do pedido em uma transação: desativa
// a anterior, insere a nova e incrementa a versão do pedido. Segunda tentativa
// concorrente de criação simplesmente substitui a sessão mais antiga.
func (s *OrderStore) AttachSession(ctx context.Context, o *model.Order, session *model.PaymentSession) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PaymentSession{}).
			Where("order_id = ? AND active = ?", o.ID, true).
			Updates(map[string]any{"active": false, "status": model.SessionCancelled}).Error; err != nil {
			return err
		}

		session.OrderID = o.ID
		session.Active = true
		if err := tx.Create(session).Error; err != nil {
			return err
		}

		res := tx.Model(&model.Order{}).
			Where("id = ? AND version = ?", o.ID, o.Version).
			Updates(map[string]any{"version": o.Version + 1, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &model.ConflictError{PublicCode: o.PublicCode, Version: o.Version}
		}
		return nil
	})
	if err != nil {
		return err
	}

	o.Version++
	o.Session = session
	s.publish(ctx, o)
	return nil
}

// LatestSession devolve a sessão mais recente do pedido, ativa ou não. O
// estorno usa esta busca porque a sessão já expirou localmente quando a
// confirmação atrasada do provedor foi honrada.
func (s *OrderStore) LatestSession(ctx context.Context, orderID uint) (*model.PaymentSession, error) {
	var session model.PaymentSession
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// MarkSessionPaid marca a sessão do charge como paga (caminho do webhook).
func (s *OrderStore) MarkSessionPaid(ctx context.Context, chargeID string) error {
	return s.db.WithContext(ctx).
		Model(&model.PaymentSession{}).
		Where("provider_charge_id = ?", chargeID).
		Update("status", model.SessionPaid).Error
}

// DeactivateSessions encerra a expectativa de pagamento online (pagar-depois).
func (s *OrderStore) DeactivateSessions(ctx context.Context, o *model.Order, status string) error {
	if err := s.db.WithContext(ctx).
		Model(&model.PaymentSession{}).
		Where("order_id = ? AND active = ?", o.ID, true).
		Updates(map[string]any{"active": false, "status": status}).Error; err != nil {
		return err
	}
	o.Session = nil
	s.publish(ctx, o)
	return nil
}

// PermanentDelete remove de vez; só vale para pedido já na lixeira.
func (s *OrderStore) PermanentDelete(ctx context.Context, o *model.Order) error {
	if o.Status != model.StatusDeleted {
		return &model.TransitionError{
			OrderType: o.OrderType,
			From:      o.Status,
			To:        model.StatusDeleted,
			Allowed:   model.AllowedTargets(o.OrderType, o.Status),
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", o.ID).Delete(&model.PaymentSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, o.ID).Error
	})
}

// ExpireSessions marca como expiradas as sessões ativas vencidas e publica os
// pedidos afetados. Nunca toca paymentStatus: o provedor é o autoritativo.
func (s *OrderStore) ExpireSessions(ctx context.Context, now time.Time) (int, error) {
	var sessions []model.PaymentSession
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&sessions).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, session := range sessions {
		if !session.DueForExpiry(now) {
			continue
		}
		if err := s.db.WithContext(ctx).
			Model(&session).
			Updates(map[string]any{"active": false, "status": model.SessionExpired}).Error; err != nil {
			s.log.Errorw("falha ao expirar sessão pix", "charge", session.ProviderChargeID, "err", err)
			continue
		}
		expired++

		var order model.Order
		if err := s.db.WithContext(ctx).Preload("Items").First(&order, session.OrderID).Error; err == nil {
			s.publish(ctx, &order)
		}
	}
	return expired, nil
}

// PurgeTrash apaga permanentemente pedidos na lixeira há mais tempo que o corte.
func (s *OrderStore) PurgeTrash(ctx context.Context, before time.Time) (int, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Where("status = ? AND deleted_on < ?", model.StatusDeleted, before).
		Find(&orders).Error; err != nil {
		return 0, err
	}

	purged := 0
	for i := range orders {
		if err := s.PermanentDelete(ctx, &orders[i]); err != nil {
			s.log.Errorw("falha ao purgar pedido da lixeira", "pedido", orders[i].PublicCode, "err", err)
			continue
		}
		purged++
	}
	return purged, nil
}

// publish envia o snapshot completo para o canal geral e o canal do pedido.
func (s *OrderStore) publish(ctx context.Context, o *model.Order) {
	snap := Snapshot{Type: "order", Version: o.Version, Order: o}
	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Errorw("falha ao serializar snapshot", "pedido", o.PublicCode, "err", err)
		return
	}

	if err := s.bus.Publish(ctx, ChannelAllOrders, payload); err != nil {
		s.log.Warnw("falha ao publicar no canal geral", "err", err)
	}
	if err := s.bus.Publish(ctx, ChannelForOrder(o.PublicCode), payload); err != nil {
		s.log.Warnw("falha ao publicar no canal do pedido", "pedido", o.PublicCode, "err", err)
	}
}

// FindAccount busca a conta do admin para o login.
func (s *OrderStore) FindAccount(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// IsNotFound ajuda os handlers a mapear para 404 sem importar gorm.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
