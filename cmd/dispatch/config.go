package main

import (
	"github.com/fsteinmetz/runlib/pkg/dispatch"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/spf13/viper"
)

func LoadConfig() (*dispatch.Config, error) {
	config := &dispatch.Config{}

	err := utils.UnmarshalConfig(viper.GetViper(), config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
