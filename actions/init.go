package actions

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/vcnkl/libpack/config"
	"github.com/vcnkl/libpack/exec"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/models"
)

type InitAction struct {
	config *config.Config
	log    logger.Logger
	force  bool
}

func NewInitAction(cfg *config.Config, log logger.Logger, force bool) *InitAction {
	return &InitAction{
		config: cfg,
		log:    log,
		force:  force,
	}
}

// Execute creates the state directory and makes sure every project
// dependency is installed, running its install command when the check fails.
func (a *InitAction) Execute(ctx context.Context) (*models.Result, error) {
	start := time.Now()
	result := &models.Result{}

	if err := os.MkdirAll(a.config.StateDir(), 0755); err != nil {
		return nil, err
	}

	env := exec.MergeEnv(os.Environ(), envList(a.config.Project().Env))

	for _, dep := range a.config.Project().Deps {
		depLog := a.log.WithPrefix(dep.Label)

		checkPassed := false
		if !a.force && dep.CheckCmd != "" {
			err := exec.RunCommand(ctx, dep.CheckCmd, &exec.ShellOptions{
				WorkDir: a.config.Root(),
				Env:     env,
				Shell:   a.config.Project().Shell,
				Stdout:  &bytes.Buffer{},
				Stderr:  &bytes.Buffer{},
			})
			if err == nil {
				checkPassed = true
				depLog.Info("check passed")
			}
		}

		if !checkPassed {
			depLog.Info("installing...")
			out := depLog.Writer()
			err := exec.RunCommand(ctx, dep.InstallCmd, &exec.ShellOptions{
				WorkDir: a.config.Root(),
				Env:     env,
				Shell:   a.config.Project().Shell,
				Stdout:  out,
				Stderr:  out,
			})
			_ = out.Close()
			if err != nil {
				depLog.Error("install failed", logger.Err(err))
				result.Failed = append(result.Failed, models.FailedTarget{
					ID:    dep.Label,
					Error: err,
				})
				continue
			}
			depLog.Info("installed")
		}

		result.Executed = append(result.Executed, dep.Label)
	}

	result.Duration = time.Since(start)

	return result, nil
}

func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	return list
}
