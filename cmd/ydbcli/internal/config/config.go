// Package config is the example CLI's configuration shape, loaded with
// conf.MustLoad the same way every growth-server service loads its etc.yaml.
package config

import "github.com/zeromicro/go-zero/core/service"

// Config configures a single run of the example CLI against one cluster.
type Config struct {
	service.ServiceConf

	EntryPoint string `json:",default=localhost:2135"`
	Database   string `json:",default=/local"`

	Auth struct {
		Mode string `json:",default=static,options=static|iamjwt|metadata"`

		Static struct {
			Token string `json:",optional"`
		} `json:",optional"`

		IAMJWT struct {
			ServiceAccountID  string `json:",optional"`
			AccessKeyID       string `json:",optional"`
			PrivateKeyPath    string `json:",optional"`
			IAMEndpoint       string `json:",optional"`
			RedisTokenCacheOn bool   `json:",default=false"`
			RedisAddr         string `json:",optional"`
		} `json:",optional"`

		Metadata struct {
			MetadataURL string `json:",optional"`
		} `json:",optional"`
	}

	Pool struct {
		TableMin int `json:",default=5"`
		TableMax int `json:",default=20"`
	}

	Metrics struct {
		Enabled   bool   `json:",default=false"`
		Namespace string `json:",default=ydb_driver"`
	}

	Tracing struct {
		Enabled bool `json:",default=false"`
	}
}
