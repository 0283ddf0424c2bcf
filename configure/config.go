package configure

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kr/pretty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

/*
pcrdelta.yaml:

  latency: 50
  buffer_packets: 512
  output_file: delta.csv
*/

type JWT struct {
	Secret    string `mapstructure:"secret"`
	Algorithm string `mapstructure:"algorithm"`
}

type ServerCfg struct {
	Level           string `mapstructure:"level" json:"level"`
	ConfigFile      string `mapstructure:"config_file" json:"config_file"`
	OutputFile      string `mapstructure:"output_file" json:"output_file"`
	Latency         int64  `mapstructure:"latency" json:"latency"`
	BufferPackets   int    `mapstructure:"buffer_packets" json:"buffer_packets"`
	MaxInputPackets int    `mapstructure:"max_input_packets" json:"max_input_packets"`
	AlignMs         int64  `mapstructure:"align_ms" json:"align_ms"`
	Watermark       int    `mapstructure:"watermark" json:"watermark"`
	CSVSeparator    string `mapstructure:"csv_separator" json:"csv_separator"`
	APIAddr         string `mapstructure:"api_addr" json:"api_addr"`
	RedisAddr       string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPwd        string `mapstructure:"redis_pwd" json:"redis_pwd"`
	JWT             JWT    `mapstructure:"jwt" json:"jwt"`
}

// default config
var defaultConf = ServerCfg{
	Level:           "info",
	ConfigFile:      "pcrdelta.yaml",
	OutputFile:      "",
	Latency:         0,
	BufferPackets:   512,
	MaxInputPackets: 128,
	AlignMs:         5,
	Watermark:       10,
	CSVSeparator:    ",",
	APIAddr:         "",
}

var Config = viper.New()

func initLog() {
	if l, err := log.ParseLevel(Config.GetString("level")); err == nil {
		log.SetLevel(l)
		log.SetReportCaller(l == log.DebugLevel)
	}
}

// init only loads the defaults so that importing this package never touches
// the process command line. Parse does the flag/file/env merge and is called
// once from main.
func init() {
	b, _ := json.Marshal(defaultConf)
	defaultConfig := bytes.NewReader(b)
	viper.SetConfigType("json")
	viper.ReadConfig(defaultConfig)
	Config.MergeConfigMap(viper.AllSettings())
	initLog()
}

// Parse binds the command line, the config file and the environment into
// Config, then connects the stats store.
func Parse() {
	defer Init()

	// Flags
	pflag.StringP("output_file", "o", "", "output file name for CSV reporting (standard error by default)")
	pflag.Int64("latency", 0, "latency threshold between the two input PCRs in milliseconds")
	pflag.IntP("buffer_packets", "b", 512, "input buffer size in packets, per input")
	pflag.Int("max_input_packets", 128, "maximum packets per receive call")
	pflag.Int64("align_ms", 5, "input timestamp alignment threshold in milliseconds")
	pflag.Int("watermark", 10, "PCR queue high-water mark before a one-sided reset")
	pflag.String("csv_separator", ",", "CSV field separator")
	pflag.String("api_addr", "", "HTTP status interface listen address (disabled by default)")
	pflag.String("redis_addr", "", "mirror status snapshots to this redis address")
	pflag.String("redis_pwd", "", "redis password")
	pflag.String("config_file", "pcrdelta.yaml", "configure filename")
	pflag.String("level", "info", "Log level")
	pflag.Parse()
	Config.BindPFlags(pflag.CommandLine)

	// File
	Config.SetConfigFile(Config.GetString("config_file"))
	Config.AddConfigPath(".")
	err := Config.ReadInConfig()
	if err != nil {
		log.Warning(err)
		log.Info("Using default config")
	} else {
		Config.MergeInConfig()
	}

	// Environment
	replacer := strings.NewReplacer(".", "_")
	Config.SetEnvKeyReplacer(replacer)
	Config.AllowEmptyEnv(true)
	Config.AutomaticEnv()

	// Log
	initLog()

	// Print final config
	c := ServerCfg{}
	Config.Unmarshal(&c)
	log.Debugf("Current configurations: \n%# v", pretty.Formatter(c))
}

// Inputs returns the positional input specs from the command line.
func Inputs() []string {
	return pflag.Args()
}
