package fluidd

import (
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"time"

	"github.com/SSSOC-CAN/fluidd/fluidics"
	"github.com/SSSOC-CAN/fluidd/status"
	"github.com/SSSOC-CAN/fluidd/utils"
	flags "github.com/jessevdk/go-flags"
	yaml "gopkg.in/yaml.v2"
)

// Config is the object which will hold all of the config parameters
type Config struct {
	DefaultLogDir      bool          `yaml:"DefaultLogDir"`
	LogFileDir         string        `yaml:"LogFileDir" long:"logfiledir" description:"Choose the directory where the log file is stored"`
	MaxLogFiles        int64         `yaml:"MaxLogFiles" long:"maxlogfiles" description:"Maximum number of logfiles in the log rotation (0 for no rotation)"`
	MaxLogFileSize     int64         `yaml:"MaxLogFileSize" long:"maxlogfilesize" description:"Maximum size of a logfile in MB"`
	ConsoleOutput      bool          `yaml:"ConsoleOutput" long:"consoleoutput" description:"Whether log information is printed to the console"`
	LogLevel           string        `yaml:"LogLevel" long:"loglevel" description:"Minimum log level: TRACE, DEBUG, INFO, ERROR, FATAL or PANIC"`
	GrpcPort           int64         `yaml:"GrpcPort" long:"grpc_port" description:"The port where fluidd listens for gRPC API requests"`
	ModuleName         string        `yaml:"ModuleName" long:"module_name" description:"The name announced in module status events"`
	Driver             string        `yaml:"Driver" long:"driver" description:"The hardware driver used by the control loop"`
	FluidicsConfigPath string        `yaml:"FluidicsConfigPath" long:"fluidics_config" description:"The capability configuration read on every START_FLUIDICS command"`
	CapabilitiesPath   string        `yaml:"CapabilitiesPath" long:"capabilities" description:"The capabilities schema announced at startup"`
	StartupInterval    time.Duration `yaml:"StartupInterval" long:"startup_interval" description:"Control loop interval while awaiting configuration"`
	ControlInterval    time.Duration `yaml:"ControlInterval" long:"control_interval" description:"Control loop interval during pressure control and purge"`
	StatusInterval     time.Duration `yaml:"StatusInterval" long:"status_interval" description:"Interval at which module status changes are published"`
	GainP              float64       `yaml:"GainP" long:"gain_p" description:"Proportional gain of the pressure regulator"`
	GainI              float64       `yaml:"GainI" long:"gain_i" description:"Integral gain of the pressure regulator"`
	GainD              float64       `yaml:"GainD" long:"gain_d" description:"Derivative gain of the pressure regulator"`
	InfluxURL          string        `yaml:"InfluxURL" long:"influxurl" description:"InfluxDB URL for diagnostics. Leave empty to disable"`
	InfluxAPIToken     string        `yaml:"InfluxAPIToken" long:"influxapitoken" description:"InfluxDB API token"`
	InfluxOrg          string        `yaml:"InfluxOrg" long:"influxorg" description:"InfluxDB organization"`
	InfluxBucket       string        `yaml:"InfluxBucket" long:"influxbucket" description:"InfluxDB bucket"`
}

// default_config returns the default configuration
// default_log_dir returns the default log directory
// default_grpc_port is the the default grpc port
var (
	config_file_name          string = "fluidd.yaml"
	default_grpc_port         int64  = 7777
	default_module_name       string = "AMM_FluidManager"
	default_driver            string = "sim"
	default_log_level         string = "INFO"
	default_log_file_size     int64  = 10
	default_max_log_files     int64  = 0
	default_startup_interval         = fluidics.DefaultStartupInterval
	default_control_interval         = fluidics.DefaultControlInterval
	default_status_interval          = status.DefaultStatusInterval
	default_influx_org        string = "entropic"
	default_influx_bucket     string = "fluidics"
	default_log_dir                  = func() string {
		return utils.AppDataDir("fluidd", false)
	}
	default_fluidics_config = func() string {
		return path.Join(default_log_dir(), "fluidics.yaml")
	}
	default_capabilities = func() string {
		return path.Join(default_log_dir(), "capabilities.yaml")
	}
	default_config = func() Config {
		return Config{
			DefaultLogDir:      true,
			LogFileDir:         default_log_dir(),
			MaxLogFiles:        default_max_log_files,
			MaxLogFileSize:     default_log_file_size,
			ConsoleOutput:      true,
			LogLevel:           default_log_level,
			GrpcPort:           default_grpc_port,
			ModuleName:         default_module_name,
			Driver:             default_driver,
			FluidicsConfigPath: default_fluidics_config(),
			CapabilitiesPath:   default_capabilities(),
			StartupInterval:    default_startup_interval,
			ControlInterval:    default_control_interval,
			StatusInterval:     default_status_interval,
			GainP:              fluidics.DefaultGainP,
			GainI:              fluidics.DefaultGainI,
			GainD:              fluidics.DefaultGainD,
			InfluxOrg:          default_influx_org,
			InfluxBucket:       default_influx_bucket,
		}
	}
)

// InitConfig returns the `Config` struct with either default values or values specified in `fluidd.yaml`
func InitConfig(isTesting bool) (Config, error) {
	// Check if fluidd directory exists, if no then create it
	if !utils.FileExists(default_log_dir()) {
		err := os.Mkdir(default_log_dir(), 0700)
		if err != nil {
			log.Println(err)
		}
	}
	config := loadConfig(path.Join(default_log_dir(), config_file_name))
	// now to parse the flags
	if !isTesting {
		if _, err := flags.Parse(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

// loadConfig reads the yaml file at configPath over the default config. Any problem falls back to the default config
func loadConfig(configPath string) Config {
	config := default_config()
	if !utils.FileExists(configPath) {
		return config
	}
	filename, _ := filepath.Abs(configPath)
	config_file, err := ioutil.ReadFile(filename)
	if err != nil {
		log.Println(err)
		return default_config()
	}
	err = yaml.Unmarshal(config_file, &config)
	if err != nil {
		log.Println(err)
		return default_config()
	}
	// Need to check if any config parameters aren't defined in `fluidd.yaml` and assign them a default value
	return check_yaml_config(config)
}

// change_field changes the value of a specified field from the config struct
func change_field(field reflect.Value, new_value interface{}) {
	if !field.IsValid() || !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		if v, ok := new_value.(string); ok {
			field.SetString(v)
			return
		}
	case reflect.Bool:
		if v, ok := new_value.(bool); ok {
			field.SetBool(v)
			return
		}
	case reflect.Int64:
		switch v := new_value.(type) {
		case int64:
			field.SetInt(v)
			return
		case time.Duration:
			field.SetInt(int64(v))
			return
		}
	case reflect.Float64:
		if v, ok := new_value.(float64); ok {
			field.SetFloat(v)
			return
		}
	}
	log.Fatalf("Type of new_value: %v does not match the type of the field: %v", new_value, field.Kind())
}

// check_yaml_config iterates over the Config struct fields and changes blank fields to default values
func check_yaml_config(config Config) Config {
	pv := reflect.ValueOf(&config)
	v := pv.Elem()
	field_names := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		field_name := field_names.Field(i).Name
		switch field_name {
		case "LogFileDir":
			if f.String() == "" {
				change_field(f, default_log_dir())
				dld := v.FieldByName("DefaultLogDir")
				change_field(dld, true)
			}
		case "MaxLogFileSize":
			if f.Int() == 0 {
				change_field(f, default_log_file_size)
			}
		case "LogLevel":
			if _, ok := log_level[f.String()]; !ok {
				change_field(f, default_log_level)
			}
		case "GrpcPort":
			if f.Int() == 0 {
				change_field(f, default_grpc_port)
			}
		case "ModuleName":
			if f.String() == "" {
				change_field(f, default_module_name)
			}
		case "Driver":
			if f.String() == "" {
				change_field(f, default_driver)
			}
		case "FluidicsConfigPath":
			if f.String() == "" {
				change_field(f, default_fluidics_config())
			}
		case "CapabilitiesPath":
			if f.String() == "" {
				change_field(f, default_capabilities())
			}
		case "StartupInterval":
			if f.Int() <= 0 {
				change_field(f, default_startup_interval)
			}
		case "ControlInterval":
			if f.Int() <= 0 {
				change_field(f, default_control_interval)
			}
		case "StatusInterval":
			if f.Int() <= 0 {
				change_field(f, default_status_interval)
			}
		case "InfluxOrg":
			if f.String() == "" {
				change_field(f, default_influx_org)
			}
		case "InfluxBucket":
			if f.String() == "" {
				change_field(f, default_influx_bucket)
			}
		default:
			continue
		}
	}
	return config
}
