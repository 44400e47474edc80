package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeyDelimiterConstant          = "."
	environmentKeyDelimiterConstant            = "_"
	listValueSeparatorConstant                 = ","
	builtInConfigurationErrorTemplateConstant  = "merge built-in configuration: %w"
	configurationFileReadErrorTemplateConstant = "read configuration file: %w"
	configurationDecodeErrorTemplateConstant   = "decode configuration: %w"
)

// ConfigurationLoader resolves command configuration from four layers, lowest
// precedence first: default values, the built-in document, config.yaml found on
// the search path (or given explicitly) and prefixed environment variables.
type ConfigurationLoader struct {
	configurationName   string
	configurationType   string
	environmentPrefix   string
	searchDirectories   []string
	builtInDocument     []byte
	builtInDocumentType string
}

// LoadedConfiguration reports which configuration file, if any, took part in loading.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader for configurationName.configurationType
// looked up in searchDirectories. Environment keys are prefixed with environmentPrefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchDirectories []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchDirectories: append([]string(nil), searchDirectories...),
	}
}

// SetEmbeddedConfiguration installs the built-in document. An empty type falls back to the loader's type.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(document []byte, documentType string) {
	if loader == nil {
		return
	}
	loader.builtInDocument = bytes.Clone(document)
	loader.builtInDocumentType = strings.TrimSpace(documentType)
}

// LoadConfiguration decodes every layer into target. A missing config.yaml on the
// search path is not an error; an explicit configurationFilePath must be readable.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	layeredConfiguration := loader.newLayeredConfiguration(defaultValues)

	if len(loader.builtInDocument) > 0 {
		layeredConfiguration.SetConfigType(loader.builtInType())
		if mergeError := layeredConfiguration.MergeConfig(bytes.NewReader(loader.builtInDocument)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(builtInConfigurationErrorTemplateConstant, mergeError)
		}
	}

	if readError := loader.mergeConfigurationFile(layeredConfiguration, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, readError
	}

	if decodeError := layeredConfiguration.Unmarshal(target, viper.DecodeHook(configurationDecodeHook())); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}
	return LoadedConfiguration{ConfigFileUsed: layeredConfiguration.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) newLayeredConfiguration(defaultValues map[string]any) *viper.Viper {
	layeredConfiguration := viper.New()
	layeredConfiguration.SetConfigName(loader.configurationName)
	for _, searchDirectory := range loader.searchDirectories {
		layeredConfiguration.AddConfigPath(searchDirectory)
	}
	for defaultKey, defaultValue := range defaultValues {
		layeredConfiguration.SetDefault(defaultKey, defaultValue)
	}

	layeredConfiguration.SetEnvPrefix(loader.environmentPrefix)
	layeredConfiguration.SetEnvKeyReplacer(strings.NewReplacer(configurationKeyDelimiterConstant, environmentKeyDelimiterConstant))
	layeredConfiguration.AutomaticEnv()
	return layeredConfiguration
}

func (loader *ConfigurationLoader) mergeConfigurationFile(layeredConfiguration *viper.Viper, configurationFilePath string) error {
	layeredConfiguration.SetConfigType(loader.configurationType)
	if len(configurationFilePath) > 0 {
		layeredConfiguration.SetConfigFile(configurationFilePath)
	}

	readError := layeredConfiguration.MergeInConfig()
	if readError == nil {
		return nil
	}
	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(readError, &notFoundError) {
		return nil
	}
	return fmt.Errorf(configurationFileReadErrorTemplateConstant, readError)
}

func (loader *ConfigurationLoader) builtInType() string {
	if len(loader.builtInDocumentType) > 0 {
		return loader.builtInDocumentType
	}
	return loader.configurationType
}

// configurationDecodeHook lets enum-like settings such as apply_mode validate themselves
// through UnmarshalText and accepts comma separated lists from the environment.
func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	)
}
