package main

import (
	"github.com/fsteinmetz/runlib/pkg/gateway"
	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/rendezvous"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

type ControlConfig struct {
	// Coordinator gateway URI; resolved through the rendezvous file
	// when empty.
	CoordinatorUri string `mapstructure:"coordinator_uri"`

	// Path of the rendezvous file.
	ServerFile string `mapstructure:"server_file"`
}

func ParseConfig() (*ControlConfig, error) {
	config := &ControlConfig{}

	err := utils.UnmarshalConfig(viper.GetViper(), config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func NewCoordinatorClient() *gateway.Client {
	var endpoint protocol.Endpoint
	var err error

	if configData.CoordinatorUri != "" {
		endpoint, err = protocol.ParseEndpoint(configData.CoordinatorUri)
	} else {
		store := rendezvous.NewStore(afero.NewOsFs(), configData.ServerFile)
		endpoint, err = store.Resolve()
	}

	if err != nil {
		log.Fatal(err)
	}

	return gateway.NewClient(endpoint, gateway.ClientConfig{})
}
