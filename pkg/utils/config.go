package utils

import (
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Flag and environment values arrive as strings; these hooks convert
// them to the bool and int fields of the config structs.
func stringToBoolHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t.Kind() != reflect.Bool {
		return data, nil
	}
	return strconv.ParseBool(data.(string))
}

func stringToIntHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t.Kind() != reflect.Int {
		return data, nil
	}
	return strconv.Atoi(data.(string))
}

// Unmarshal all viper settings into cfg, converting string values to
// the duration, bool and int fields they target.
func UnmarshalConfig(v *viper.Viper, cfg interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.DecodeHookFuncType(stringToBoolHook),
			mapstructure.DecodeHookFuncType(stringToIntHook),
		),
		Result: cfg,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(v.AllSettings())
}
