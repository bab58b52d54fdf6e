package utils

import "os"

var (
	TRINO_HOST    = GetEnvOrDefault("TRINO_HOST", "localhost")
	TRINO_PORT    = GetEnvOrDefaultInt("TRINO_PORT", 8080)
	TRINO_USER    = GetEnvOrDefault("TRINO_USER", "trino")
	TRINO_CATALOG = GetEnvOrDefault("TRINO_CATALOG", "local")
	TRINO_SCHEMA  = GetEnvOrDefault("TRINO_SCHEMA", "default")

	OBJECT_STORE_PATH = GetEnvOrDefault("OBJECT_STORE_PATH", "./objects")

	AWS_ACCESS_KEY_ID     = os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY = os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	S3_BUCKET_NAME = os.Getenv("S3_BUCKET_NAME")
	S3_ENDPOINT    = os.Getenv("S3_ENDPOINT")
)
