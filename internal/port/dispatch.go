package port

import "context"

// TaskPublisher 把构建任务投递给 worker。消息只包含 build id。
type TaskPublisher interface {
	PublishBuild(ctx context.Context, buildID string) error
}

// BuildHandler 处理一条构建任务。
type BuildHandler func(ctx context.Context, buildID string) error

// BuildLocker 保证同一 build id 同时只有一个 worker 在执行。
type BuildLocker interface {
	// TryLock 获取锁；已被占用时返回 ok=false。unlock 只释放自己持有的锁。
	TryLock(ctx context.Context, buildID string) (unlock func(context.Context) error, ok bool, err error)
}
