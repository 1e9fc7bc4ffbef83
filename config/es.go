package config

// IndexSpecificConfig 定义了单个 Elasticsearch 索引的配置。
type IndexSpecificConfig struct {
	Name             string `mapstructure:"name" json:"name" yaml:"name"`                                     // 索引的名称
	NumberOfShards   int    `mapstructure:"numberOfShards" json:"numberOfShards" yaml:"numberOfShards"`       // 主分片数量
	NumberOfReplicas int    `mapstructure:"numberOfReplicas" json:"numberOfReplicas" yaml:"numberOfReplicas"` // 每个主分片的副本数量
	// 可选：settings+mappings 模板文件路径，为空时使用内置模板
	MappingFile string `mapstructure:"mappingFile" json:"mappingFile" yaml:"mappingFile"`
}

// ESConfig 定义了 Elasticsearch 的连接和索引配置
type ESConfig struct {
	Addresses []string `mapstructure:"addresses" json:"addresses" yaml:"addresses"`
	Username  string   `mapstructure:"username" json:"username" yaml:"username"`
	Password  string   `mapstructure:"password" json:"password" yaml:"password"`

	// 商家索引的配置
	BusinessIndex IndexSpecificConfig `mapstructure:"businessIndex" json:"businessIndex" yaml:"businessIndex"`

	// 热门搜索词索引的配置
	HotTermsIndex IndexSpecificConfig `mapstructure:"hotTermsIndex" json:"hotTermsIndex" yaml:"hotTermsIndex"`
}
