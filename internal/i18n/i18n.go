package i18n

import (
	"context"
	"embed"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

type localizerKey struct{}

// Translator 持有消息包与语言匹配器
type Translator struct {
	bundle  *i18n.Bundle
	matcher language.Matcher
	tags    []language.Tag
}

// New 加载内嵌的 locales/<lang>.toml，defaultLang 为匹配失败时的语言
func New(defaultLang string) (*Translator, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, err
	}
	bundle := i18n.NewBundle(tag)
	// ⚠️ 注册 TOML 解析器
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		filePath := path.Join("locales", entry.Name())
		file, err := localeFS.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(file, filePath); err != nil {
			return nil, err
		}
	}

	// 默认语言排在第一位，Matcher 无法匹配时回退到它
	tags := bundle.LanguageTags()
	return &Translator{
		bundle:  bundle,
		matcher: language.NewMatcher(tags),
		tags:    tags,
	}, nil
}

// SupportedLanguages 已加载的语言
func (t *Translator) SupportedLanguages() []string {
	langs := make([]string, 0, len(t.tags))
	for _, tag := range t.tags {
		langs = append(langs, tag.String())
	}
	return langs
}

// Match 根据 Accept-Language 选出支持的语言
func (t *Translator) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.tags[0].String()
	}
	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.tags[0].String()
	}
	return t.tags[index].String()
}

func (t *Translator) Localizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(t.bundle, lang)
}

func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

// T 翻译 messageID；ctx 中没有 Localizer 或消息缺失时返回 fallback
func T(ctx context.Context, messageID string, data map[string]interface{}, fallback string) string {
	localizer, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	if !ok || messageID == "" {
		return fallback
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil || strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
