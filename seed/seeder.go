package seed

import (
	"log"

	"WaifuBracket/models"

	"gorm.io/gorm"
)

var waifus = []models.Waifu{
	{
		Name:        "Asuka Langley",
		Description: "Second Child, pilots Unit-02.",
		SourceWork:  "Neon Genesis Evangelion",
	},
	{
		Name:        "Rei Ayanami",
		Description: "First Child, pilots Unit-00.",
		SourceWork:  "Neon Genesis Evangelion",
	},
	{
		Name:        "Misato Katsuragi",
		Description: "NERV operations director.",
		SourceWork:  "Neon Genesis Evangelion",
	},
	{
		Name:        "Mari Makinami",
		Description: "Provisional Unit-05 pilot.",
		SourceWork:  "Neon Genesis Evangelion",
	},
}

var aliases = map[string]string{
	"Asuka Langley": "Asuka",
	"Rei Ayanami":   "Rei",
}

// Load populates a development database with a small sample registry.
func Load(db *gorm.DB) {
	for i := range waifus {
		waifus[i].Prepare()
		if _, err := waifus[i].SaveWaifu(db); err != nil {
			log.Fatalf("cannot seed waifus table: %v", err)
		}
		if alias, ok := aliases[waifus[i].Name]; ok {
			if _, err := waifus[i].AddAlias(db, waifus[i].ID, alias); err != nil {
				log.Fatalf("cannot seed aliases table: %v", err)
			}
		}
	}

	if _, err := models.AddSourceWorkAlias(db, "Neon Genesis Evangelion", "Eva"); err != nil {
		log.Fatalf("cannot seed source work alias: %v", err)
	}
}
