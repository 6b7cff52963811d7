package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, uint64(2), cfg.Algorand.WaitRounds)
	assert.Equal(t, uint64(0), cfg.Algorand.AppID)
	assert.Equal(t, "public/uploads", cfg.Upload.Dir)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_AlgorandIDs(t *testing.T) {
	v := viper.New()
	v.Set("APP_ID", "123456")
	v.Set("CLIMATECOIN_ASA_ID", " 987 ")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("APP_ENV", "test")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), cfg.Algorand.AppID)
	assert.Equal(t, uint64(987), cfg.Algorand.ClimatecoinASAID)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.App.IsTest())
}

func TestFromViper_AppIDInvalido(t *testing.T) {
	v := viper.New()
	v.Set("APP_ID", "no-es-numero")

	_, err := fromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ID")
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss/word", DBName: "cc", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/cc?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
