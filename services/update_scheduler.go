package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"arg-stats/fotmob"
)

// UpdateBroadcaster 更新完成后的实时推送接口,由 web 层的 Hub 实现
type UpdateBroadcaster interface {
	BroadcastUpdate(event string, data interface{})
}

// UpdateScheduler 定时抓取当前轮次及下一轮次未完赛比赛的调度器
type UpdateScheduler struct {
	store       *MatchStore
	ingest      *IngestService
	client      *fotmob.Client
	broadcaster UpdateBroadcaster
	interval    time.Duration
	fetchDelay  time.Duration
	log         *logrus.Logger
	stop        chan struct{}
}

// NewUpdateScheduler 创建更新调度器
func NewUpdateScheduler(store *MatchStore, ingest *IngestService, client *fotmob.Client, interval, fetchDelay time.Duration, log *logrus.Logger) *UpdateScheduler {
	return &UpdateScheduler{
		store:      store,
		ingest:     ingest,
		client:     client,
		interval:   interval,
		fetchDelay: fetchDelay,
		log:        log,
		stop:       make(chan struct{}),
	}
}

// SetBroadcaster 注入实时推送通道(可选)
func (s *UpdateScheduler) SetBroadcaster(b UpdateBroadcaster) {
	s.broadcaster = b
}

// Start 启动调度循环,立即执行一轮后按 interval 周期执行
func (s *UpdateScheduler) Start() {
	s.log.Infof("[Scheduler] Starting update scheduler, interval: %v", s.interval)

	if err := s.RunOnce(); err != nil {
		s.log.Errorf("[Scheduler] ❌ Initial update cycle failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(); err != nil {
				s.log.Errorf("[Scheduler] ❌ Update cycle failed: %v", err)
			}
		case <-s.stop:
			s.log.Info("[Scheduler] Update scheduler stopped")
			return
		}
	}
}

// Stop 停止调度循环
func (s *UpdateScheduler) Stop() {
	close(s.stop)
}

// RunOnce 执行一轮更新:定位当前轮次,抓取当前及下一轮次所有未完赛比赛
// 单场失败只记录日志,不中断整轮
func (s *UpdateScheduler) RunOnce() error {
	gameweek, err := s.store.LatestFinishedGameweek()
	if err != nil {
		return fmt.Errorf("failed to determine current gameweek: %w", err)
	}

	gameweeks := []string{strconv.Itoa(gameweek), strconv.Itoa(gameweek + 1)}
	matchIDs, err := s.store.PendingMatchIDs(gameweeks)
	if err != nil {
		return fmt.Errorf("failed to list pending matches: %w", err)
	}

	if len(matchIDs) == 0 {
		s.log.Debugf("[Scheduler] No pending matches in gameweeks %v", gameweeks)
		return nil
	}

	s.log.Infof("[Scheduler] Updating %d pending matches in gameweeks %v", len(matchIDs), gameweeks)

	updated := 0
	for i, matchID := range matchIDs {
		if i > 0 {
			time.Sleep(s.fetchDelay)
		}

		details, err := s.client.GetMatchDetails(matchID)
		if err != nil {
			s.log.Errorf("[Scheduler] ❌ Failed to fetch match %s: %v", matchID, err)
			continue
		}

		if err := s.ingest.IngestMatch(matchID, details); err != nil {
			s.log.Errorf("[Scheduler] ❌ Failed to ingest match %s: %v", matchID, err)
			continue
		}

		updated++
		if s.broadcaster != nil && details.Header.Status.Finished {
			s.broadcaster.BroadcastUpdate("match_updated", map[string]interface{}{
				"match_id": matchID,
			})
		}
	}

	s.log.Infof("[Scheduler] ✅ Update cycle complete, %d/%d matches refreshed", updated, len(matchIDs))
	return nil
}
