package conf

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/util"
)

// DefaultConfigFile is read when no -configPath is given.
const DefaultConfigFile = "conf/my.ini"

type CommandLineArgs struct {
	ConfigPath string
}

/*
[server]
data_dir = data
prompt   = SQL>

[storage]
catalog_file     = database.json
table_cache_size = 4194304

[transaction]
read_your_writes = false

[audit]
enabled  = true
log_path = data/audit_logs.json

[logs]
log_error = logs/error.log
log_infos = logs/xflatdb.log
log_level = info
*/
type Cfg struct {
	Raw *ini.File

	// server
	DataDir string
	Prompt  string

	// storage
	CatalogFile    string
	TableCacheSize int64

	// transaction
	ReadYourWrites bool

	// audit
	AuditEnabled bool
	AuditLogPath string

	// logs
	LogError string
	LogInfos string
	LogLevel string
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:            ini.Empty(),
		DataDir:        "data",
		Prompt:         "SQL> ",
		CatalogFile:    "database.json",
		TableCacheSize: 4 << 20,
		ReadYourWrites: false,
		AuditEnabled:   true,
		AuditLogPath:   filepath.Join("data", "audit_logs.json"),
		LogError:       "",
		LogInfos:       "",
		LogLevel:       "info",
	}
}

// Load reads the ini file named by args (or DefaultConfigFile). A missing
// file leaves the defaults in place; a malformed one is an error.
func (cfg *Cfg) Load(args *CommandLineArgs) (*Cfg, error) {
	iniFile, err := cfg.loadConfiguration(args)
	if err != nil {
		return nil, err
	}
	cfg.Raw = iniFile

	cfg.parseServerCfg(cfg.Raw.Section("server"))
	cfg.parseStorageCfg(cfg.Raw.Section("storage"))
	cfg.parseTransactionCfg(cfg.Raw.Section("transaction"))
	cfg.parseAuditCfg(cfg.Raw.Section("audit"))
	cfg.parseLogsCfg(cfg.Raw.Section("logs"))
	return cfg, nil
}

func (cfg *Cfg) loadConfiguration(args *CommandLineArgs) (*ini.File, error) {
	configFile := DefaultConfigFile
	if args != nil && args.ConfigPath != "" {
		configFile = args.ConfigPath
	}

	exists, err := util.PathExists(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "stat config file %s", configFile)
	}
	if !exists {
		logger.Debugf("config file %s not found, using defaults", configFile)
		return ini.Empty(), nil
	}

	parsedFile, err := ini.Load(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", configFile)
	}
	logger.Debugf("loaded config file %s", configFile)
	return parsedFile, nil
}

func valueAsString(section *ini.Section, keyName string, defaultValue string) string {
	if section == nil {
		return defaultValue
	}
	value := section.Key(keyName).MustString(defaultValue)
	if value == "" {
		value = defaultValue
	}
	return value
}

func (cfg *Cfg) parseServerCfg(section *ini.Section) *Cfg {
	cfg.DataDir = valueAsString(section, "data_dir", cfg.DataDir)
	if section != nil && section.HasKey("prompt") {
		// ini trims values; keep a separating space after the prompt
		cfg.Prompt = strings.TrimRight(section.Key("prompt").String(), " ") + " "
	}
	return cfg
}

func (cfg *Cfg) parseStorageCfg(section *ini.Section) *Cfg {
	cfg.CatalogFile = valueAsString(section, "catalog_file", cfg.CatalogFile)
	if section != nil {
		cfg.TableCacheSize = section.Key("table_cache_size").MustInt64(cfg.TableCacheSize)
	}
	if cfg.TableCacheSize < 0 {
		cfg.TableCacheSize = 0
	}
	return cfg
}

func (cfg *Cfg) parseTransactionCfg(section *ini.Section) *Cfg {
	if section != nil {
		cfg.ReadYourWrites = section.Key("read_your_writes").MustBool(cfg.ReadYourWrites)
	}
	return cfg
}

func (cfg *Cfg) parseAuditCfg(section *ini.Section) *Cfg {
	if section != nil {
		cfg.AuditEnabled = section.Key("enabled").MustBool(cfg.AuditEnabled)
	}
	cfg.AuditLogPath = valueAsString(section, "log_path", cfg.AuditLogPath)
	return cfg
}

func (cfg *Cfg) parseLogsCfg(section *ini.Section) *Cfg {
	cfg.LogError = valueAsString(section, "log_error", cfg.LogError)
	cfg.LogInfos = valueAsString(section, "log_infos", cfg.LogInfos)

	logLevel := strings.ToLower(valueAsString(section, "log_level", cfg.LogLevel))
	switch logLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
		cfg.LogLevel = logLevel
	default:
		logger.Debugf("invalid log level '%s', using 'info'", logLevel)
		cfg.LogLevel = "info"
	}
	return cfg
}

// CatalogPath is the absolute location of the catalog file.
func (cfg *Cfg) CatalogPath() string {
	if filepath.IsAbs(cfg.CatalogFile) {
		return cfg.CatalogFile
	}
	return filepath.Join(cfg.DataDir, cfg.CatalogFile)
}
