package domain

import (
	"fmt"
	"time"
)

// BuildStatus 是 Build 的状态机枚举。
// 状态流转：Created → InProgress → (Complete | Error)
type BuildStatus string

const (
	BuildStatusCreated    BuildStatus = "CREATED"
	BuildStatusInProgress BuildStatus = "IN_PROGRESS"
	BuildStatusComplete   BuildStatus = "COMPLETE"
	BuildStatusError      BuildStatus = "ERROR"
)

var validBuildTransitions = map[BuildStatus][]BuildStatus{
	BuildStatusCreated:    {BuildStatusInProgress},
	BuildStatusInProgress: {BuildStatusComplete, BuildStatusError},
	BuildStatusComplete:   {},
	BuildStatusError:      {},
}

func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusComplete || s == BuildStatusError
}

func (s BuildStatus) CanTransition(to BuildStatus) bool {
	for _, next := range validBuildTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Build 代表一次包发布构建。PackageID 在该名称首次构建成功前为空。
type Build struct {
	ID            string      `json:"id"`
	Creator       string      `json:"creator"`
	EnvironmentID string      `json:"environment_id"`
	PackageID     string      `json:"package_id,omitempty"`
	Status        BuildStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TransitionTo 推进状态，非法流转返回 ErrInvalidTransition。
func (b *Build) TransitionTo(to BuildStatus, now time.Time) error {
	if !b.Status.CanTransition(to) {
		return fmt.Errorf("%w: build %s %s -> %s", ErrInvalidTransition, b.ID, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}

// BuildResource 是构建的输入包，与 Build 同事务创建，之后只读。
type BuildResource struct {
	BuildID                  string             `json:"build_id"`
	PackageContents          []byte             `json:"-"`
	PackageDefinition        *PackageDefinition `json:"package_definition"`
	PackageDefinitionVersion string             `json:"package_definition_version"`
}

// BuildLog 在构建进入终态时写入且仅写入一次。
type BuildLog struct {
	BuildID   string    `json:"build_id"`
	Log       string    `json:"log"`
	CreatedAt time.Time `json:"created_at"`
}
