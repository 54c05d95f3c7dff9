package migration

import (
	"fmt"
	"log"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// Parent tables first so the join tables can reference them.
	models := []any{
		&entities.User{},
		&entities.Follow{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeTag{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCartItem{},
	}

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			log.Fatalf("Error migrating database: %v", err)
			return err
		}
	}

	fmt.Println("Database migration complete")
	return nil
}
