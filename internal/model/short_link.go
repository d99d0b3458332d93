package model

import (
	"time"

	"shortlink-proxy/constant"
	"shortlink-proxy/pkg/utils"
)

// ShortLink 唯一持久化的实体：短码 -> 目标地址，创建后不可修改
type ShortLink struct {
	Code      string    `gorm:"primaryKey;size:32" json:"code"`
	TargetURL string    `gorm:"size:2048;not null" json:"url"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (ShortLink) TableName() string {
	return constant.LinkTable
}

// Validate 读取时的结构校验，存储里的数据不被默认信任
func (l *ShortLink) Validate() error {
	if err := utils.ValidateShortCode(l.Code); err != nil {
		return err
	}
	return utils.ValidateTargetURL(l.TargetURL)
}
