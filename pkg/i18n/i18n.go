package i18n

import (
	"AapdaMitra/pkg/logger"
	"embed"
	"encoding/json"
	"path"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// I18nSupport 国际化支持结构体
type I18nSupport struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
	matcher     language.Matcher
}

// NewI18nSupport 初始化国际化支持
func NewI18nSupport(defaultLang string) (*I18nSupport, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, err
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := path.Join("locales", e.Name())
		buf, err := locales.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(buf, name); err != nil {
			return nil, err
		}
	}

	// the default language leads so unmatched requests fall back to it
	tags := []language.Tag{tag}
	for _, t := range bundle.LanguageTags() {
		if t != tag {
			tags = append(tags, t)
		}
	}

	return &I18nSupport{
		bundle:      bundle,
		defaultLang: tag,
		matcher:     language.NewMatcher(tags),
	}, nil
}

// Match picks the best supported language for the given tags, in
// preference order, and returns its base code ("en", "hi").
func (i *I18nSupport) Match(preferred ...language.Tag) string {
	tag, _, _ := i.matcher.Match(preferred...)
	base, _ := tag.Base()
	return base.String()
}

// Supported reports whether lang has its own message file.
func (i *I18nSupport) Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	// unmatched tags resolve to the default language with High confidence
	matched, _, _ := i.matcher.Match(tag)
	want, _ := tag.Base()
	got, _ := matched.Base()
	return want == got
}

// T 获取翻译文本
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag, i.defaultLang.String())

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Warn("translation missing", zap.String("key", key), zap.String("lang", languageTag), zap.Error(err))
		return key // 返回键名作为默认值
	}
	return translation
}

// TWithDefaultLang 使用默认语言获取翻译文本
func (i *I18nSupport) TWithDefaultLang(key string, templateData map[string]interface{}) string {
	return i.T(i.defaultLang.String(), key, templateData)
}
