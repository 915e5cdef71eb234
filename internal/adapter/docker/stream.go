package docker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
)

type buildResult struct {
	imageID string
	log     string
}

// readBuildStream 把构建输出流整理成可读日志。流中出现 error 消息时返回该错误，
// 日志包含出错前的全部输出。
func readBuildStream(r io.Reader) (buildResult, error) {
	var (
		res buildResult
		sb  strings.Builder
	)
	err := eachMessage(r, func(msg jsonmessage.JSONMessage) error {
		if msg.Error != nil {
			fmt.Fprintf(&sb, "ERROR: %s\n", msg.Error.Message)
			return errors.New(msg.Error.Message)
		}
		if id := unmarshalAux(msg.Aux); id != "" {
			res.imageID = id
			return nil
		}
		switch {
		case msg.Stream != "":
			sb.WriteString(msg.Stream)
		case msg.Status != "" && !isProgress(msg):
			writeStatus(&sb, msg)
		}
		return nil
	})
	res.log = sb.String()
	return res, err
}

// readPushStream 把推送输出整理成 "<layer>: <status>" 形式的逐行日志，进度消息被忽略。
func readPushStream(r io.Reader) (string, error) {
	var sb strings.Builder
	err := eachMessage(r, func(msg jsonmessage.JSONMessage) error {
		if msg.Error != nil {
			fmt.Fprintf(&sb, "ERROR: %s\n", msg.Error.Message)
			return errors.New(msg.Error.Message)
		}
		if msg.Status == "" || isProgress(msg) {
			return nil
		}
		writeStatus(&sb, msg)
		return nil
	})
	return sb.String(), err
}

// isProgress 判断是否为带进度的中间状态（Pushing、Downloading 等）。
func isProgress(msg jsonmessage.JSONMessage) bool {
	return msg.Progress != nil && msg.Progress.Total > 0
}

func writeStatus(sb *strings.Builder, msg jsonmessage.JSONMessage) {
	if msg.ID != "" {
		fmt.Fprintf(sb, "%s: %s\n", msg.ID, msg.Status)
		return
	}
	sb.WriteString(msg.Status)
	sb.WriteByte('\n')
}

func eachMessage(r io.Reader, fn func(jsonmessage.JSONMessage) error) error {
	dec := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode docker stream: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
