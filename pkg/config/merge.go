package config

// Merge combines the configuration sources. Precedence from lowest to
// highest is defaults, dir, file, cli. Nil values never override an
// existing value but still declare the key. The file and directory sources
// cannot relocate themselves through config_file or config_dir. Any source
// may be nil.
func Merge(defaults, dir, file, cli map[string]interface{}) *Configuration {
	c := New()
	apply(c, defaults, nil)
	apply(c, dir, fileExcluded)
	apply(c, file, fileExcluded)
	apply(c, cli, nil)
	return c
}

func apply(c *Configuration, src map[string]interface{}, exclude map[string]bool) {
	for _, k := range sortedKeys(src) {
		v := src[k]
		if k == KeyCore || exclude[k] {
			continue
		}
		if v == nil {
			if _, declared := c.values[k]; declared {
				continue
			}
		}
		c.set(k, v)
	}
}

func pick(src map[string]interface{}, keys []string) map[string]interface{} {
	out := map[string]interface{}{}
	for _, k := range keys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}
