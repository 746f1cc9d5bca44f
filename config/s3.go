package config

import (
	"sync"
)

var (
	s3Once   sync.Once
	s3Config *S3Config
)

// S3Config selects the bucket used by the s3 artifact backend. Endpoint is
// optional and points the client at an S3-compatible service.
type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Prefix     string
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		s3Config = LoadS3Config()
	})
	return s3Config
}

// LoadS3Config reads the environment without caching.
func LoadS3Config() *S3Config {
	loadDotEnv()
	return &S3Config{
		BucketName: getEnv("AWS_S3_BUCKET_NAME", ""),
		Region:     getEnv("AWS_REGION", "us-east-1"),
		Endpoint:   getEnv("AWS_ENDPOINT", ""),
		AccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		SecretKey:  getEnv("AWS_SECRET_KEY", ""),
		Prefix:     getEnv("AWS_S3_PREFIX", "condenser/"),
	}
}
