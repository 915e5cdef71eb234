// Package cli 实现 functionary 命令行：脚手架、生成 schema、打包与发布。
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// 注册 python 签名解析器
	_ "github.com/catattack05/functionary/internal/parser/python"
)

const envPrefix = "FUNCTIONARY"

// NewRootCmd 构建命令树。每次调用使用独立的 viper 实例，便于测试。
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "functionary",
		Short:         "Build and publish functionary packages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.functionary.yaml)")
	flags.String("host", "http://localhost:8080", "functionary server URL")
	flags.String("token", "", "API key sent as X-API-Key")
	flags.StringP("environment", "e", "", "environment to publish to")
	for _, name := range []string{"host", "token", "environment"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newCreateCmd(),
		newGenschemaCmd(),
		newPackCmd(),
		newPublishCmd(v),
		newBuildsCmd(v),
	)
	return root
}

func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigType("yaml")
	v.SetConfigName(".functionary")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", filepath.Join(home, ".functionary.yaml"), err)
	}
	return nil
}

// packageDir 返回参数中的包目录，缺省为当前目录。
func packageDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
