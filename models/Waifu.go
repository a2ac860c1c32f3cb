package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Waifu is a globally unique tournament candidate. Brackets reference rows
// of this table by id and never copy them, so an edit here is visible to
// every bracket immediately.
type Waifu struct {
	ID          uint   `gorm:"primary_key;autoIncrement" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	NameKey     string `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Description string `gorm:"text" json:"description"`
	ImageURL    string `gorm:"size:512" json:"image_url"`
	SourceWork  string `gorm:"size:255;index" json:"source_work"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (w *Waifu) Prepare() {
	w.Name = html.EscapeString(strings.TrimSpace(w.Name))
	w.NameKey = strings.ToLower(w.Name)
	w.Description = html.EscapeString(strings.TrimSpace(w.Description))
	w.ImageURL = strings.TrimSpace(w.ImageURL)
	w.SourceWork = html.EscapeString(strings.TrimSpace(w.SourceWork))
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()
}

func (w *Waifu) Validate() map[string]string {
	errorMessages := make(map[string]string)

	if w.Name == "" {
		errorMessages["Required_name"] = "Required Name"
	}
	if w.SourceWork == "" {
		errorMessages["Required_source_work"] = "Required Source Work"
	}
	return errorMessages
}

// nameTaken reports whether name collides case-insensitively with any waifu
// name or any alias, excluding the waifu with id exclude.
func nameTaken(db *gorm.DB, name string, exclude uint) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	var count int64
	if err := db.Model(&Waifu{}).
		Where("name_key = ? AND id <> ?", key, exclude).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&Alias{}).
		Where("alias_key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// aliasTaken reports whether alias already denotes any waifu or source work,
// via the alias table, a waifu name, or a source-work title.
func aliasTaken(db *gorm.DB, alias string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(alias))

	var count int64
	if err := db.Model(&Alias{}).
		Where("alias_key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&Waifu{}).
		Where("name_key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&Waifu{}).
		Where("lower(source_work) = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveWaifu registers a new waifu. Moderation approval happens upstream;
// by the time this runs the add is already approved.
func (w *Waifu) SaveWaifu(db *gorm.DB) (*Waifu, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	taken, err := nameTaken(db, w.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateNameError{Name: w.Name}
	}
	if err := db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Waifu) FindWaifuByID(db *gorm.DB, id uint) (*Waifu, error) {
	err := db.Where("id = ?", id).Take(w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownWaifu
		}
		return nil, err
	}
	return w, nil
}

func (w *Waifu) FindAllWaifus(db *gorm.DB) ([]Waifu, error) {
	waifus := []Waifu{}
	if err := db.Order("id ASC").Find(&waifus).Error; err != nil {
		return nil, err
	}
	return waifus, nil
}

// Rename changes the canonical name, re-validating uniqueness against both
// names and aliases.
func (w *Waifu) Rename(db *gorm.DB, id uint, name string) (*Waifu, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, err := w.FindWaifuByID(db, id); err != nil {
		return nil, err
	}
	name = html.EscapeString(strings.TrimSpace(name))
	if name == "" {
		return nil, errors.New("required name")
	}
	taken, err := nameTaken(db, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateNameError{Name: name}
	}
	err = db.Model(&Waifu{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":       name,
		"name_key":   strings.ToLower(name),
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return w.FindWaifuByID(db, id)
}

func (w *Waifu) UpdateDescription(db *gorm.DB, id uint, description string) (*Waifu, error) {
	return w.updateColumn(db, id, "description", html.EscapeString(strings.TrimSpace(description)))
}

func (w *Waifu) UpdateImage(db *gorm.DB, id uint, imageURL string) (*Waifu, error) {
	return w.updateColumn(db, id, "image_url", strings.TrimSpace(imageURL))
}

func (w *Waifu) UpdateSourceWork(db *gorm.DB, id uint, sourceWork string) (*Waifu, error) {
	return w.updateColumn(db, id, "source_work", html.EscapeString(strings.TrimSpace(sourceWork)))
}

func (w *Waifu) updateColumn(db *gorm.DB, id uint, column, value string) (*Waifu, error) {
	if _, err := w.FindWaifuByID(db, id); err != nil {
		return nil, err
	}
	err := db.Model(&Waifu{}).Where("id = ?", id).Updates(map[string]interface{}{
		column:       value,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return w.FindWaifuByID(db, id)
}

// AddAlias attaches a search alias to a waifu.
func (w *Waifu) AddAlias(db *gorm.DB, id uint, alias string) (*Alias, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, err := w.FindWaifuByID(db, id); err != nil {
		return nil, err
	}
	alias = html.EscapeString(strings.TrimSpace(alias))
	taken, err := aliasTaken(db, alias)
	if err != nil {
		return nil, err
	}
	if alias == "" || taken {
		return nil, &DuplicateAliasError{Alias: alias}
	}
	row := Alias{
		Alias:    alias,
		AliasKey: strings.ToLower(alias),
		Kind:     AliasKindWaifu,
		WaifuID:  &id,
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// AddSourceWorkAlias attaches an alias to a source work. The work must be
// the source of at least one registered waifu.
func AddSourceWorkAlias(db *gorm.DB, sourceWork, alias string) (*Alias, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	sourceWork = html.EscapeString(strings.TrimSpace(sourceWork))

	var count int64
	if err := db.Model(&Waifu{}).
		Where("lower(source_work) = ?", strings.ToLower(sourceWork)).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, &NoMatchError{Query: sourceWork}
	}

	alias = html.EscapeString(strings.TrimSpace(alias))
	taken, err := aliasTaken(db, alias)
	if err != nil {
		return nil, err
	}
	if alias == "" || taken {
		return nil, &DuplicateAliasError{Alias: alias}
	}
	row := Alias{
		Alias:      alias,
		AliasKey:   strings.ToLower(alias),
		Kind:       AliasKindSourceWork,
		SourceWork: sourceWork,
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindAliases returns the aliases attached to a waifu.
func (w *Waifu) FindAliases(db *gorm.DB, id uint) ([]Alias, error) {
	aliases := []Alias{}
	err := db.Where("kind = ? AND waifu_id = ?", AliasKindWaifu, id).
		Order("id ASC").Find(&aliases).Error
	if err != nil {
		return nil, err
	}
	return aliases, nil
}
