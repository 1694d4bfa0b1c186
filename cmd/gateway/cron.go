package main

import (
	"context"
	"time"

	"SearchLane/internal/biz"
	"SearchLane/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// probeTimeout 单次探测的上限，客户端自身还有 health_timeout
const probeTimeout = 10 * time.Second

// NewHealthProbeCron 创建依赖健康探测定时任务
// 执行频率由 probe.spec 决定（默认 @every 30s），探测不经过熔断器
// 由 kratos App 的生命周期钩子启动与停止；未启用时返回 nil
func NewHealthProbeCron(c *conf.HealthProbe, uc *biz.GatewayUsecase, logger log.Logger) (*cron.Cron, error) {
	helper := log.NewHelper(log.With(logger, "module", "cron/health_probe"))
	if c == nil || !c.Enabled {
		helper.Info("dependency health probe disabled")
		return nil, nil
	}

	cr := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := cr.AddFunc(c.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		uc.Probe(ctx)
	})
	if err != nil {
		helper.Errorw("msg", "failed to register health probe cron job", "spec", c.Spec, "error", err)
		return nil, err
	}

	helper.Infow("msg", "dependency health probe registered", "spec", c.Spec)
	return cr, nil
}
