package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/folio/internal/models"
)

func (c *Cli) runSettings(ctx context.Context) error {
	st, err := c.auth.GetSettings(ctx)
	if err != nil {
		return err
	}

	c.printSettings(st)
	return nil
}

func (c *Cli) runSettingsSet(ctx context.Context, args []string) error {
	patch, err := parseSettingsPatch(args)
	if err != nil {
		return err
	}

	st, err := c.auth.UpdateSettings(ctx, patch)
	if err != nil {
		return err
	}

	c.io.Println("✓ Settings updated")
	c.printSettings(st)
	return nil
}

func (c *Cli) printSettings(st *models.Settings) {
	for _, f := range settingsFields(st) {
		c.io.Printf("%-16s %s\n", f.key+":", *f.value)
	}
	if !st.UpdatedAt.IsZero() {
		c.io.Printf("%-16s %s\n", "updatedAt:", st.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

type settingsField struct {
	value *string
	key   string
}

// settingsFields ключи совпадают с JSON именами полей
func settingsFields(st *models.Settings) []settingsField {
	return []settingsField{
		{key: "blogName", value: &st.BlogName},
		{key: "blogDescription", value: &st.BlogDescription},
		{key: "heroTitle", value: &st.HeroTitle},
		{key: "heroSubtitle", value: &st.HeroSubtitle},
		{key: "twitter", value: &st.Twitter},
		{key: "linkedin", value: &st.LinkedIn},
		{key: "github", value: &st.GitHub},
		{key: "metaTitle", value: &st.MetaTitle},
		{key: "metaDescription", value: &st.MetaDescription},
		{key: "metaKeywords", value: &st.MetaKeywords},
	}
}

// parseSettingsPatch разбирает аргументы вида key=value
func parseSettingsPatch(args []string) (models.SettingsPatch, error) {
	var patch models.SettingsPatch
	if len(args) == 0 {
		return patch, fmt.Errorf("usage: folio settings-set KEY=VALUE...")
	}

	targets := map[string]**string{
		"blogname":        &patch.BlogName,
		"blogdescription": &patch.BlogDescription,
		"herotitle":       &patch.HeroTitle,
		"herosubtitle":    &patch.HeroSubtitle,
		"twitter":         &patch.Twitter,
		"linkedin":        &patch.LinkedIn,
		"github":          &patch.GitHub,
		"metatitle":       &patch.MetaTitle,
		"metadescription": &patch.MetaDescription,
		"metakeywords":    &patch.MetaKeywords,
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return patch, fmt.Errorf("invalid argument %q, expected KEY=VALUE", arg)
		}

		dst, known := targets[strings.ToLower(key)]
		if !known {
			return patch, fmt.Errorf("unknown settings key %q", key)
		}
		v := value
		*dst = &v
	}

	return patch, nil
}
