package config

const (
	EnvPrefix = "zamy"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
