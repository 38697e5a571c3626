//
// Copyright 2023 Bytedance Ltd. and/or its affiliates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package testsuit

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type MySQLOption struct {
	NoLog bool
}

// MysqlEnabled 是否开启 mysql 集成测试
// 前提: 在根目录执行 docker-compose up 命令，并设置 MYSQL_TEST=true
func MysqlEnabled() bool {
	return os.Getenv("MYSQL_TEST") == "true"
}

func mysqlHost() string {
	if os.Getenv("LOCAL_TEST") == "true" {
		return "localhost:3308"
	}
	return "mysql:3306"
}

// InitMysql 启动测试数据库
func InitMysql(opts ...MySQLOption) *gorm.DB {
	dsn := fmt.Sprintf("root:@tcp(%s)/checkout?parseTime=true&loc=Local", mysqlHost())
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	for _, o := range opts {
		if o.NoLog {
			return db
		}
	}
	return db.Debug()
}

func InitMysqlWithDatabase(db *gorm.DB, database string) *gorm.DB {
	err := db.Exec("CREATE DATABASE IF NOT EXISTS " + database + ";").Error // ignore_security_alert
	if err != nil {
		panic(err)
	}
	dsn := fmt.Sprintf("root:@tcp(%s)/%s?parseTime=true&loc=Local", mysqlHost(), database)
	ndb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	return ndb.Debug()
}
