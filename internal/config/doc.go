// Package config provides configuration management for the stevedore CLI.
//
// # Configuration File
//
// The default configuration file location is
// $XDG_CONFIG_HOME/stevedore/config.yaml, with the current directory
// searched first so projects can carry their own config. The file uses
// YAML format:
//
//	app_name: app
//	source_dir: ./src
//	deploy_dir: ./deployments
//	backup_dir: ./backups
//	max_backups: 5
//	hooks:
//	  pre_deploy:
//	    - make test
//	  post_deploy:
//	    - systemctl restart app
//	  pre_rollback: []
//	  post_rollback: []
//
// Relative directory paths are resolved against the config file's own
// directory.
//
// # Loading Configuration
//
// Call [Init] once at startup to seed defaults and environment binding
// (STEVEDORE_* variables override file values), then [Load]:
//
//	config.Init()
//	cfg, err := config.Load("")
//
// # Validation
//
// Loaded configurations are not validated implicitly. Validate before
// handing the config to the engine:
//
//	if errs := config.Validate(cfg); len(errs) > 0 {
//	    for _, e := range errs {
//	        fmt.Println(e)
//	    }
//	}
//
// # Default Values
//
// [Default] returns the configuration that `stevedore init` persists:
// app "app", ./src → ./deployments, backups in ./backups, retention 5,
// no hooks.
package config
