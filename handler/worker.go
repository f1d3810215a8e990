package handler

import (
	"context"
	"time"

	"pizzaria_backend/store"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Quanto tempo um pedido fica na lixeira antes da purga automática.
const TrashRetention = 30 * 24 * time.Hour

// StartSessionSweeper varre a cada minuto as sessões PIX vencidas. A varredura
// só encerra a expectativa local e nunca toca paymentStatus; confirmação
// atrasada do provedor continua valendo.
func StartSessionSweeper(s *store.OrderStore, log *zap.SugaredLogger) *cron.Cron {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := c.AddFunc("* * * * *", func() {
		n, err := s.ExpireSessions(context.Background(), time.Now())
		if err != nil {
			log.Errorw("varredura de sessões pix falhou", "err", err)
			return
		}
		if n > 0 {
			log.Infow("sessões pix expiradas", "quantidade", n)
		}
	})
	if err != nil {
		log.Errorw("não registrou a varredura de sessões", "err", err)
		return c
	}

	c.Start()
	log.Info("varredura de sessões pix iniciada (a cada minuto)")
	return c
}

// StartTrashPurgeScheduler roda a purga da lixeira toda madrugada (03:30).
func StartTrashPurgeScheduler(s *store.OrderStore, log *zap.SugaredLogger) gocron.Scheduler {
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.FixedZone("BRT", -3*3600)),
	)
	if err != nil {
		log.Errorw("não iniciou o scheduler da lixeira", "err", err)
		return nil
	}

	_, err = sched.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(3, 30, 0),
			),
		),
		gocron.NewTask(func() {
			n, err := s.PurgeTrash(context.Background(), time.Now().Add(-TrashRetention))
			if err != nil {
				log.Errorw("purga da lixeira falhou", "err", err)
				return
			}
			if n > 0 {
				log.Infow("pedidos purgados da lixeira", "quantidade", n)
			}
		}),
	)
	if err != nil {
		log.Errorw("não registrou a purga da lixeira", "err", err)
		return sched
	}

	sched.Start()
	log.Info("purga da lixeira agendada (03:30 BRT)")
	return sched
}
