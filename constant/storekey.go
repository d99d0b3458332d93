package constant

import "fmt"

// 存储命名空间，所有短链记录都挂在 proxy 前缀下
const (
	StoreNamespace = "proxy"
	Separator      = ":"
)

// 各存储后端的键模板
const (
	RedisLinkKey  = StoreNamespace + Separator + "%s" // proxy:<code>
	BadgerLinkKey = StoreNamespace + "/" + "%s"       // proxy/<code>
	LinkTable     = StoreNamespace + "_links"
)

// ShortPathPrefix 代理路由前缀
const ShortPathPrefix = "/p/"

// GetRedisLinkKey 生成 Redis 中短码对应的键
func GetRedisLinkKey(code string) string {
	return fmt.Sprintf(RedisLinkKey, code)
}

// GetRedisLinkPattern 生成 SCAN 使用的匹配模式
func GetRedisLinkPattern() string {
	return fmt.Sprintf(RedisLinkKey, "*")
}

// GetBadgerLinkKey 生成 Badger 中短码对应的键
func GetBadgerLinkKey(code string) []byte {
	return []byte(fmt.Sprintf(BadgerLinkKey, code))
}

// GetBadgerLinkPrefix 生成 Badger 前缀遍历使用的前缀
func GetBadgerLinkPrefix() []byte {
	return []byte(StoreNamespace + "/")
}
