package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// ReconcileService 对账器：把聚合真值覆盖写回冗余计数。
// 三种模式：定向（指定Profile集合）、扇出（删号后的邻居集合走定向）、全量扫描。
// 对账写入的值就是调用瞬间算出的真值，本身绝不制造漂移，重复跑无副作用
type ReconcileService struct {
	profiles ProfileStore
	agg      AggregateStore
	edges    EdgeStore
	vis      VisibilityStore
	cache    StatsCache

	batchSize int
	workers   int
	interval  time.Duration
	opTimeout time.Duration
}

// ReconcileReport 一次对账的结果。Corrected>0 即检测到漂移（信息性，不算失败）
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
	Failures  int `json:"failures"`
}

func (r *ReconcileReport) merge(other ReconcileReport) {
	r.Scanned += other.Scanned
	r.Corrected += other.Corrected
	r.Failures += other.Failures
}

// DriftDetected 是否有计数被修正过
func (r *ReconcileReport) DriftDetected() bool { return r.Corrected > 0 }

func NewReconcileService(profiles ProfileStore, agg AggregateStore, edges EdgeStore, vis VisibilityStore, cache StatsCache) *ReconcileService {
	return &ReconcileService{
		profiles:  profiles,
		agg:       agg,
		edges:     edges,
		vis:       vis,
		cache:     cache,
		batchSize: 500,             // 一个批次对账的Profile数
		workers:   4,               // 批次间并发上限，防止打爆存储
		interval:  5 * time.Minute, // 定时全量对账间隔，决定漂移窗口上限
		opTimeout: 2 * time.Minute, // 单轮全量对账的硬截止，存储挂死也不能拖住ticker
	}
}

// Targeted 定向对账：只重算给定集合的计数。关注/取关影响两个端点、
// 可见性变更影响一个owner，这类可证明的小集合变更之后同步调用
func (s *ReconcileService) Targeted(ctx context.Context, userIDs []uint64) (ReconcileReport, error) {
	var report ReconcileReport
	if len(userIDs) == 0 {
		return report, nil
	}
	chunks := chunkIDs(dedupeIDs(userIDs), s.batchSize)
	if len(chunks) == 1 {
		report = s.reconcileChunk(ctx, chunks[0])
		return report, nil
	}

	// 大集合（删号扇出可能有成千上万邻居）按批并发，批间失败互相隔离：
	// 单批失败只计入Failures，绝不中止或回滚其他批
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(ids []uint64) {
			defer wg.Done()
			defer func() { <-sem }()
			sub := s.reconcileChunk(ctx, ids)
			mu.Lock()
			report.merge(sub)
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()
	return report, nil
}

// ReconcileAll 全量扫描：游标分批遍历所有Profile跑定向逻辑。
// 幂等——没有新变更时第二次运行不会改任何计数；用于定时修复和手工"修计数"
func (s *ReconcileService) ReconcileAll(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	var lastID uint64
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		profiles, next, err := s.profiles.ListBatch(ctx, lastID, s.batchSize)
		if err != nil {
			return report, err
		}
		if len(profiles) == 0 {
			return report, nil
		}
		ids := make([]uint64, 0, len(profiles))
		for _, p := range profiles {
			ids = append(ids, p.UserID)
		}
		report.merge(s.reconcileChunk(ctx, ids))
		lastID = next
	}
}

// CleanupOrphans 孤儿清理：删掉端点已不存在的边、entry已不存在的可见性记录，
// 然后全量对账。每类一条服务端语句，可与线上流量并发、可重复调用
func (s *ReconcileService) CleanupOrphans(ctx context.Context) (edges int64, records int64, report ReconcileReport, err error) {
	if edges, err = s.edges.DeleteOrphans(ctx); err != nil {
		return
	}
	if records, err = s.vis.DeleteOrphans(ctx); err != nil {
		return
	}
	report, err = s.ReconcileAll(ctx)
	return
}

// Run 定时全量对账。关注成功但对账失败的请求会留下已知漂移，
// 这里的周期性修复把漂移窗口压到interval以内。
// 每一轮挂 opTimeout 截止时间：连接挂死只废掉这一轮，下个tick照常触发
func (s *ReconcileService) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tickCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
			report, err := s.ReconcileAll(tickCtx)
			cancel()
			if err != nil {
				log.Printf("reconcile all err: %v", err)
				continue
			}
			if report.DriftDetected() {
				log.Printf("reconcile corrected drift: scanned=%d corrected=%d failures=%d",
					report.Scanned, report.Corrected, report.Failures)
			}
		}
	}
}

// reconcileChunk 对一批Profile算真值并覆盖写回，单个Profile失败不影响同批其他
func (s *ReconcileService) reconcileChunk(ctx context.Context, userIDs []uint64) ReconcileReport {
	var report ReconcileReport
	profiles, err := s.profiles.ListByUserIDs(ctx, userIDs)
	if err != nil {
		log.Printf("reconcile list profiles err: %v", err)
		report.Failures = len(userIDs)
		return report
	}
	// 已删除的Profile自然不在结果里，跳过即可
	counts, err := s.agg.Counts(ctx, profiles)
	if err != nil {
		log.Printf("reconcile counts err: %v", err)
		report.Failures = len(profiles)
		return report
	}
	stored := make(map[uint64][3]int64, len(profiles))
	for _, p := range profiles {
		stored[p.UserID] = [3]int64{p.FollowersCount, p.FollowingCount, p.PublicEntriesCount}
	}
	for _, c := range counts {
		report.Scanned++
		old := stored[c.UserID]
		if old[0] == c.FollowersCount && old[1] == c.FollowingCount && old[2] == c.PublicEntriesCount {
			continue
		}
		if err := s.profiles.UpdateCounters(ctx, c); err != nil {
			log.Printf("reconcile update counters user=%d err: %v", c.UserID, err)
			report.Failures++
			continue
		}
		report.Corrected++
		if err := s.cache.Invalidate(ctx, c.UserID); err != nil {
			log.Printf("reconcile invalidate cache user=%d err: %v", c.UserID, err)
		}
	}
	return report
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func chunkIDs(ids []uint64, size int) [][]uint64 {
	if size <= 0 {
		size = 500
	}
	var chunks [][]uint64
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
