package chunkserver

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"driftfs/internal/rpc/masterrpc"
)

// otpSweepInterval is the fixed cadence spec.md §4.1 mandates for dropping
// expired OTP entries, independent of any configured interval.
const otpSweepInterval = 5 * time.Minute

// startHeartbeatSender starts the loop that reports this node's held-chunk
// set to the current master every HeartbeatInterval.
func (s *Server) startHeartbeatSender() error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.HeartbeatInterval),
		gocron.NewTask(s.sendHeartbeatOnce),
	)
	if err != nil {
		return err
	}
	s.heartbeatJob = job
	return nil
}

func (s *Server) sendHeartbeatOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HeartbeatInterval)
	defer cancel()

	held, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("heartbeat: list held chunks failed", "error", err)
		return
	}

	cl, addr, err := s.currentMasterClient()
	if err != nil {
		s.logger.Warn("heartbeat: no reachable master", "error", err)
		return
	}

	_, err = cl.Heartbeat(ctx, &masterrpc.HeartbeatRequest{Address: s.selfAddr, Chunks: held})
	if err != nil {
		s.logger.Warn("heartbeat: rpc failed, will retry next tick", "master", addr, "error", err)
		// Advance to the next configured master so the next tick does not
		// keep hitting a dead one.
		s.masterMu.Lock()
		s.masterIdx = (s.masterIdx + 1) % len(s.cfg.MasterAddrs)
		s.masterMu.Unlock()
		return
	}
}

func (s *Server) startOtpSweeper() error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(otpSweepInterval),
		gocron.NewTask(func() {
			if n := s.otpTable.Sweep(); n > 0 {
				s.logger.Debug("otp sweep", "removed", n)
			}
		}),
	)
	if err != nil {
		return err
	}
	s.otpSweepJob = job
	return nil
}
