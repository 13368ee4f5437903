/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package migrator

import (
	"fmt"
	"log"

	"github.com/wslmonitor/wslmonitor/internal/apps/auth"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/db"
	"gorm.io/gorm"
)

// Migrate 执行数据库迁移
// Migrate runs schema migration for all registered models and seeds the
// default admin account.
func Migrate() error {
	if !db.IsDatabaseInitialized() {
		if err := db.InitDatabase(); err != nil {
			return fmt.Errorf("[Migrator] 初始化数据库失败: %w", err)
		}
	}

	gormDB := db.GetGlobalDB()
	if gormDB == nil {
		log.Println("[Migrator] 数据库未启用，跳过迁移")
		return nil
	}

	// 注册需要迁移的模型
	// Register models to migrate
	models := []interface{}{
		&auth.User{},
		&process.ProcessRecord{},
		&process.StatSnapshot{},
		&process.OperationLog{},
	}

	if err := gormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("[Migrator] 自动迁移失败: %w", err)
	}

	if err := initDefaultAdminUser(gormDB); err != nil {
		return fmt.Errorf("[Migrator] 初始化默认管理员失败: %w", err)
	}

	log.Println("[Migrator] 数据库迁移完成")
	return nil
}

// initDefaultAdminUser 创建默认管理员账号（已存在则跳过）
// initDefaultAdminUser seeds the default admin account, skipped when any
// user already exists.
func initDefaultAdminUser(gormDB *gorm.DB) error {
	var count int64
	if err := gormDB.Model(&auth.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	authConfig := config.GetAuthConfig()
	admin := &auth.User{
		Username: authConfig.DefaultAdminUsername,
		IsActive: true,
		IsAdmin:  true,
	}
	if err := admin.SetPassword(authConfig.DefaultAdminPassword, authConfig.BcryptCost); err != nil {
		return err
	}
	if err := admin.Create(gormDB); err != nil {
		return err
	}

	log.Printf("[Migrator] 已创建默认管理员: %s\n", authConfig.DefaultAdminUsername)
	return nil
}
