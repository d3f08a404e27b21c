package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/device"
	"github.com/devicelab-dev/scroll-runner/pkg/driver/bridge"
	"github.com/devicelab-dev/scroll-runner/pkg/driver/mock"
	"github.com/devicelab-dev/scroll-runner/pkg/executor"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// Driver names.
const (
	driverBridge = "bridge"
	driverMock   = "mock"
)

// mockScript is the on-disk form of a mock agent configuration.
type mockScript struct {
	VisibleAfter map[string]int  `yaml:"visibleAfter"`
	Pages        [][]interface{} `yaml:"pages"`
	FailOnScroll int             `yaml:"failOnScroll"`
}

func loadMockScript(path string) (mock.Config, error) {
	var cfg mock.Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided script
	if err != nil {
		return cfg, fmt.Errorf("read mock script: %w", err)
	}
	var script mockScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return cfg, fmt.Errorf("parse mock script %s: %w", path, err)
	}
	cfg.VisibleAfter = script.VisibleAfter
	cfg.Pages = script.Pages
	cfg.FailOnScroll = script.FailOnScroll
	return cfg, nil
}

// createAgent connects one agent for deviceID. The returned cleanup closes
// the session and is never nil.
func createAgent(ctx context.Context, s *settings, deviceID string) (core.Agent, func(), error) {
	if s.Driver == driverMock {
		cfg, err := loadMockScript(s.MockScript)
		if err != nil {
			return nil, nil, err
		}
		cfg.DeviceID = deviceID
		if s.Platform != "" && s.Platform != "mock" {
			cfg.Platform = s.Platform
		}
		logger.Info("using mock agent (device %s)", pick(deviceID, "mock-device"))
		return mock.New(cfg), func() {}, nil
	}

	platform := s.Platform
	if platform == "" {
		platform = "android"
	}
	if deviceID == "" && platform == "android" {
		// The agent falls back to its own default device when none is sent.
		if serial, err := device.FirstAndroid(ctx); err == nil {
			logger.Info("auto-detected device: %s", serial)
			deviceID = serial
		} else {
			logger.Debug("device auto-detect skipped: %v", err)
		}
	}
	agent, err := bridge.New(platform, bridge.Config{
		URL:      s.AgentURL,
		DeviceID: deviceID,
		RPS:      s.RPS,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := agent.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to %s agent at %s: %w", platform, agent.Client().BaseURL(), err)
	}
	cleanup := func() {
		if err := agent.Close(context.Background()); err != nil {
			logger.Warn("close agent session: %v", err)
		}
	}
	return agent, cleanup, nil
}

// createDeviceWorkers connects one agent per device. On failure every agent
// already connected is closed.
func createDeviceWorkers(ctx context.Context, s *settings) ([]executor.DeviceWorker, error) {
	var workers []executor.DeviceWorker

	cleanupAll := func() {
		for _, w := range workers {
			w.Cleanup()
		}
	}

	for i, deviceID := range s.Devices {
		agent, cleanup, err := createAgent(ctx, s, deviceID)
		if err != nil {
			cleanupAll()
			return nil, fmt.Errorf("failed to create agent for device %s: %w", deviceID, err)
		}
		workers = append(workers, executor.DeviceWorker{
			ID:       i,
			DeviceID: deviceID,
			Agent:    agent,
			Cleanup:  cleanup,
		})
	}

	return workers, nil
}
