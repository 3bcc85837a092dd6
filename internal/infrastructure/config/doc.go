// Package config loads Gray Logic Blink settings from a YAML file.
//
// Values are layered: built-in defaults, then the file, then GRAYLOGIC_*
// environment variables (see envOverrides). Secrets such as the MQTT
// password, the InfluxDB token, and the JWT secret are best supplied
// through the environment so the file can stay world-readable.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	srv.ReadTimeout = cfg.API.Timeouts.ReadTimeout()
package config
