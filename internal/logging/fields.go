package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// StoreFields 提供缓存根目录与键字段，供 Store 读写日志复用。
func StoreFields(root, key string) logrus.Fields {
	return logrus.Fields{
		"root": root,
		"key":  key,
	}
}

// ReaperFields 标记日志来自哪个根目录上的哪个 Reaper 实例。
func ReaperFields(path, reaperID string) logrus.Fields {
	return logrus.Fields{
		"reaper_path": path,
		"reaper_id":   reaperID,
	}
}

// RequestFields 提供请求 ID、方法与缓存命中状态，供 HTTP 访问日志复用。
func RequestFields(requestID, method, key string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"key":        key,
		"cache_hit":  cacheHit,
	}
}
